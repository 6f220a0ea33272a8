// Package seed loads the demo catalog and the three demo accounts.
package seed

import (
	"context"
	_ "embed"
	"strings"
	"time"

	"github.com/AliMakkawi/library-management/library/internal/errs"
	"github.com/AliMakkawi/library-management/library/internal/model"
	"github.com/AliMakkawi/library-management/library/internal/service"
	"github.com/AliMakkawi/library-management/pkg/auth"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

type User struct {
	Name     string    `yaml:"name"`
	Email    string    `yaml:"email"`
	Password string    `yaml:"password"`
	Role     auth.Role `yaml:"role"`
}

type Book struct {
	Title           string `yaml:"title"`
	Author          string `yaml:"author"`
	ISBN            string `yaml:"isbn"`
	Genre           string `yaml:"genre"`
	Description     string `yaml:"description"`
	PublicationYear int    `yaml:"publicationYear"`
	TotalCopies     int    `yaml:"totalCopies"`
}

type Data struct {
	Users []User `yaml:"users"`
	Books []Book `yaml:"books"`
}

// Store is the slice of the repository the seeder writes through.
type Store interface {
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	CreateUser(ctx context.Context, user model.User) (model.User, error)
	ISBNTaken(ctx context.Context, isbn, exceptID string) (bool, error)
	CreateBook(ctx context.Context, book model.Book) (model.Book, error)
}

func Load() (Data, error) {
	return Parse(catalogYAML)
}

func Parse(raw []byte) (Data, error) {
	var d Data
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return Data{}, errors.Wrap(err, "seed yaml")
	}
	for _, u := range d.Users {
		if !u.Role.Valid() {
			return Data{}, errors.Errorf("seed user %s: invalid role %q", u.Email, u.Role)
		}
	}
	for _, b := range d.Books {
		if b.ISBN == "" || b.TotalCopies < 1 {
			return Data{}, errors.Errorf("seed book %q: isbn and totalCopies are required", b.Title)
		}
	}
	return d, nil
}

type Result struct {
	Users int
	Books int
}

// Run inserts the users and books that are not there yet. Existing rows are left untouched.
func Run(ctx context.Context, store Store, d Data, log *zap.Logger) (Result, error) {
	var res Result
	now := time.Now().UTC().Truncate(time.Microsecond)

	for _, u := range d.Users {
		email := strings.ToLower(strings.TrimSpace(u.Email))
		_, err := store.GetUserByEmail(ctx, email)
		if err == nil {
			continue
		}
		if !errors.Is(err, errs.ErrUserNotFound) {
			return res, errors.Wrapf(err, "lookup %s", email)
		}
		hash, err := auth.HashPassword(u.Password)
		if err != nil {
			return res, err
		}
		if _, err = store.CreateUser(ctx, model.User{
			ID:           uuid.NewString(),
			Email:        email,
			Name:         u.Name,
			PasswordHash: hash,
			Role:         u.Role,
			CreatedAt:    now,
			UpdatedAt:    now,
		}); err != nil {
			return res, errors.Wrapf(err, "create user %s", email)
		}
		res.Users++
		log.Info("seeded user", zap.String("email", email), zap.String("role", string(u.Role)))
	}

	for _, b := range d.Books {
		taken, err := store.ISBNTaken(ctx, b.ISBN, "")
		if err != nil {
			return res, err
		}
		if taken {
			continue
		}
		cover := service.CoverURL(b.ISBN)
		book := model.Book{
			ID:              uuid.NewString(),
			ISBN:            b.ISBN,
			Title:           b.Title,
			Author:          b.Author,
			Genre:           b.Genre,
			CoverImage:      &cover,
			TotalCopies:     b.TotalCopies,
			AvailableCopies: b.TotalCopies,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if b.Description != "" {
			desc := b.Description
			book.Description = &desc
		}
		if b.PublicationYear != 0 {
			year := b.PublicationYear
			book.PublicationYear = &year
		}
		if _, err = store.CreateBook(ctx, book); err != nil {
			return res, errors.Wrapf(err, "create book %s", b.ISBN)
		}
		res.Books++
	}
	log.Info("seed finished", zap.Int("users", res.Users), zap.Int("books", res.Books))
	return res, nil
}
