package seed

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

// File is the startup seed: users together with the items they own.
type File struct {
	Users []User `yaml:"users"`
}

type User struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
	Items []Item `yaml:"items"`
}

type Item struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Available   *bool  `yaml:"available"`
}

// Load reads a seed file. A missing file yields an empty seed.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &File{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse seed %s: %w", path, err)
	}
	return &file, nil
}

// Result counts what Apply created.
type Result struct {
	Users int
	Items int
}

// Apply creates the seeded users and items through the services, but only into an empty store.
func Apply(ctx context.Context, file *File, users domain.UserService, items domain.ItemService, logger *zerolog.Logger) (Result, error) {
	var res Result
	if file == nil || len(file.Users) == 0 {
		return res, nil
	}

	existing, err := users.ListUsers(ctx)
	if err != nil {
		return res, fmt.Errorf("list users: %w", err)
	}
	if len(existing) > 0 {
		if logger != nil {
			logger.Info().Int("users", len(existing)).Msg("store is not empty, skipping seed")
		}
		return res, nil
	}

	for _, u := range file.Users {
		created, err := users.CreateUser(ctx, models.NewUser{Name: u.Name, Email: u.Email})
		if err != nil {
			return res, fmt.Errorf("seed user %s: %w", u.Email, err)
		}
		res.Users++

		for _, it := range u.Items {
			req := models.NewItem{Name: it.Name, Description: it.Description, Available: it.Available}
			if _, err := items.CreateItem(ctx, created.ID, req); err != nil {
				return res, fmt.Errorf("seed item %s: %w", it.Name, err)
			}
			res.Items++
		}
	}

	if logger != nil {
		logger.Info().Int("users", res.Users).Int("items", res.Items).Msg("store seeded")
	}
	return res, nil
}
