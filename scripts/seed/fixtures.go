package main

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Fixtures is the default data loaded into an empty database.
type Fixtures struct {
	Permissions []PermissionFixture `yaml:"permissions"`
	Roles       []RoleFixture       `yaml:"roles"`
	Users       []UserFixture       `yaml:"users"`
}

type PermissionFixture struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type RoleFixture struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Permissions []string `yaml:"permissions"`
}

type UserFixture struct {
	Email    string   `yaml:"email"`
	Name     string   `yaml:"name"`
	Password string   `yaml:"password"`
	Roles    []string `yaml:"roles"`
}

// ParseFixtures decodes and checks a fixtures document.
func ParseFixtures(data []byte) (Fixtures, error) {
	var fx Fixtures
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil {
		return Fixtures{}, fmt.Errorf("seed: decode fixtures: %w", err)
	}
	if err := fx.Validate(); err != nil {
		return Fixtures{}, err
	}
	return fx, nil
}

// Validate checks that every role and user reference resolves inside the
// document, mirroring the rules the API enforces on create.
func (f Fixtures) Validate() error {
	var errs []error
	perms := make(map[string]bool, len(f.Permissions))
	for _, p := range f.Permissions {
		if p.Name == "" {
			errs = append(errs, errors.New("permission without name"))
			continue
		}
		if perms[p.Name] {
			errs = append(errs, fmt.Errorf("duplicate permission %q", p.Name))
		}
		perms[p.Name] = true
	}
	roles := make(map[string]bool, len(f.Roles))
	for _, r := range f.Roles {
		if r.Name == "" {
			errs = append(errs, errors.New("role without name"))
			continue
		}
		if len(r.Permissions) == 0 {
			errs = append(errs, fmt.Errorf("role %q has no permissions", r.Name))
		}
		for _, p := range r.Permissions {
			if !perms[p] {
				errs = append(errs, fmt.Errorf("role %q references unknown permission %q", r.Name, p))
			}
		}
		roles[r.Name] = true
	}
	for _, u := range f.Users {
		if u.Email == "" || u.Name == "" {
			errs = append(errs, fmt.Errorf("user %q needs email and name", u.Email))
		}
		if len(u.Password) < 6 {
			errs = append(errs, fmt.Errorf("user %q password must be at least 6 characters long", u.Email))
		}
		if len(u.Roles) == 0 {
			errs = append(errs, fmt.Errorf("user %q has no roles", u.Email))
		}
		for _, r := range u.Roles {
			if !roles[r] {
				errs = append(errs, fmt.Errorf("user %q references unknown role %q", u.Email, r))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("seed: invalid fixtures: %w", errors.Join(errs...))
	}
	return nil
}

// lookupIDs maps names to ids, failing on the first unknown name.
func lookupIDs(kind string, ids map[string]string, names []string) ([]string, error) {
	out := make([]string, 0, len(names))
	for _, n := range names {
		id, ok := ids[n]
		if !ok {
			return nil, fmt.Errorf("seed: %s %q not found", kind, n)
		}
		out = append(out, id)
	}
	return out, nil
}
