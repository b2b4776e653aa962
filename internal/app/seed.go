package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"formgrid/internal/domain"
	"formgrid/internal/repository"
)

// SeedRepos holds the repositories the seed loader writes through. Seeding
// runs before any request, so it bypasses the ability model.
type SeedRepos struct {
	Resources *repository.ResourceRepo
	Forms     *repository.FormRepo
	Roles     *repository.RoleRepo
	Users     *repository.UserRepo
	PullJobs  *repository.PullJobRepo
}

// seedFile is the YAML shape of a seed file.
type seedFile struct {
	Resources []seedResource `yaml:"resources"`
	Roles     []seedRole     `yaml:"roles"`
	Users     []seedUser     `yaml:"users"`
	PullJobs  []seedPullJob  `yaml:"pullJobs"`
}

type seedResource struct {
	Name   string                   `yaml:"name"`
	Fields []domain.FieldDescriptor `yaml:"fields"`
	Forms  []seedForm               `yaml:"forms"`
}

type seedForm struct {
	Name   string                   `yaml:"name"`
	Core   bool                     `yaml:"core"`
	Fields []domain.FieldDescriptor `yaml:"fields"`
}

type seedRole struct {
	Name  string         `yaml:"name"`
	Rules []seedRoleRule `yaml:"rules"`
}

type seedRoleRule struct {
	Action    string         `yaml:"action"`
	Subject   string         `yaml:"subject"`
	Resource  string         `yaml:"resource"`  // resource name, empty = all
	Condition map[string]any `yaml:"condition"` // filter node, may reference $me
	Fields    []string       `yaml:"fields"`
}

type seedUser struct {
	Name    string   `yaml:"name"`
	Email   string   `yaml:"email"`
	IsAdmin bool     `yaml:"isAdmin"`
	Roles   []string `yaml:"roles"` // role names
}

type seedPullJob struct {
	Name     string `yaml:"name"`
	Resource string `yaml:"resource"` // resource name
	URL      string `yaml:"url"`
	Schedule string `yaml:"schedule"`
	Path     string `yaml:"path"`
}

// ApplySeedFile loads a YAML seed file and creates any resources, roles,
// users, and pull jobs that do not already exist. Idempotent by name.
func ApplySeedFile(ctx context.Context, path string, repos SeedRepos, logger *slog.Logger) error {
	raw, err := os.ReadFile(path) //nolint:gosec // path comes from config
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	var seed seedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}

	now := time.Now().UTC()
	resourceIDs := make(map[string]string)

	for _, sr := range seed.Resources {
		existing, err := repos.Resources.GetByName(ctx, sr.Name)
		if err == nil {
			resourceIDs[sr.Name] = existing.ID
			continue
		}
		var notFound *domain.NotFoundError
		if !errors.As(err, &notFound) {
			return err
		}

		res := &domain.Resource{
			ID:        uuid.NewString(),
			Name:      sr.Name,
			Fields:    sr.Fields,
			CreatedAt: now,
		}
		if err := repos.Resources.Create(ctx, res); err != nil {
			return fmt.Errorf("seed resource %q: %w", sr.Name, err)
		}
		resourceIDs[sr.Name] = res.ID

		for _, sf := range sr.Forms {
			fields := sf.Fields
			if sf.Core {
				fields = sr.Fields
			}
			form := &domain.Form{
				ID:         uuid.NewString(),
				ResourceID: res.ID,
				Name:       sf.Name,
				Core:       sf.Core,
				Fields:     fields,
				CreatedAt:  now,
			}
			if err := repos.Forms.Create(ctx, form); err != nil {
				return fmt.Errorf("seed form %q: %w", sf.Name, err)
			}
		}
		logger.Info("seeded resource", "resource", sr.Name, "forms", len(sr.Forms))
	}

	existingRoles, err := repos.Roles.List(ctx)
	if err != nil {
		return err
	}
	roleIDs := make(map[string]string)
	for _, role := range existingRoles {
		roleIDs[role.Name] = role.ID
	}

	for _, sr := range seed.Roles {
		if _, ok := roleIDs[sr.Name]; ok {
			continue
		}
		role := &domain.Role{
			ID:        uuid.NewString(),
			Name:      sr.Name,
			CreatedAt: now,
		}
		for _, rule := range sr.Rules {
			var condition json.RawMessage
			if rule.Condition != nil {
				condition, err = json.Marshal(rule.Condition)
				if err != nil {
					return fmt.Errorf("seed role %q: encode condition: %w", sr.Name, err)
				}
			}
			role.Rules = append(role.Rules, domain.RoleRule{
				ID:         uuid.NewString(),
				RoleID:     role.ID,
				Action:     rule.Action,
				Subject:    rule.Subject,
				ResourceID: resourceIDs[rule.Resource],
				Condition:  condition,
				Fields:     rule.Fields,
			})
		}
		if err := repos.Roles.Create(ctx, role); err != nil {
			return fmt.Errorf("seed role %q: %w", sr.Name, err)
		}
		roleIDs[sr.Name] = role.ID
		logger.Info("seeded role", "role", sr.Name, "rules", len(role.Rules))
	}

	for _, su := range seed.Users {
		if _, err := repos.Users.GetByEmail(ctx, su.Email); err == nil {
			continue
		}
		user := &domain.User{
			ID:        uuid.NewString(),
			Name:      su.Name,
			Email:     su.Email,
			IsAdmin:   su.IsAdmin,
			CreatedAt: now,
		}
		for _, roleName := range su.Roles {
			id, ok := roleIDs[roleName]
			if !ok {
				return fmt.Errorf("seed user %q: unknown role %q", su.Email, roleName)
			}
			user.RoleIDs = append(user.RoleIDs, id)
		}
		if err := repos.Users.Create(ctx, user); err != nil {
			return fmt.Errorf("seed user %q: %w", su.Email, err)
		}
		logger.Info("seeded user", "email", su.Email, "admin", su.IsAdmin)
	}

	existingJobs, err := repos.PullJobs.ListActive(ctx)
	if err != nil {
		return err
	}
	jobNames := make(map[string]bool)
	for _, job := range existingJobs {
		jobNames[job.Name] = true
	}

	for _, sj := range seed.PullJobs {
		if jobNames[sj.Name] {
			continue
		}
		resourceID, ok := resourceIDs[sj.Resource]
		if !ok {
			return fmt.Errorf("seed pull job %q: unknown resource %q", sj.Name, sj.Resource)
		}
		job := &domain.PullJob{
			ID:         uuid.NewString(),
			Name:       sj.Name,
			ResourceID: resourceID,
			URL:        sj.URL,
			Schedule:   sj.Schedule,
			Path:       sj.Path,
			Active:     true,
			CreatedAt:  now,
		}
		if err := repos.PullJobs.Create(ctx, job); err != nil {
			return fmt.Errorf("seed pull job %q: %w", sj.Name, err)
		}
		logger.Info("seeded pull job", "job", sj.Name, "schedule", sj.Schedule)
	}

	return nil
}
