package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func currentPrincipal(c *fiber.Ctx) (*auth.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return principal, nil
}

func currentActor(c *fiber.Ctx) (domain.Actor, error) {
	principal, err := currentPrincipal(c)
	if err != nil {
		return domain.Actor{}, err
	}
	return principal.Actor(), nil
}

func pathID(c *fiber.Ctx, name string) (domain.ID, error) {
	raw := strings.TrimSpace(c.Params(name))
	if raw == "" {
		return "", apperrors.NewValidationError(name+" is required", nil)
	}
	id, ok := domain.ParseID(raw)
	if !ok {
		return "", apperrors.NewValidationError("malformed "+name, map[string]any{name: raw})
	}
	return id, nil
}

func queryID(c *fiber.Ctx, key string) (*domain.ID, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	id, ok := domain.ParseID(raw)
	if !ok {
		return nil, apperrors.NewValidationError("malformed "+key, map[string]any{key: raw})
	}
	return &id, nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}

// pagination reads page/page_size and returns limit/offset.
func pagination(c *fiber.Ctx) (int, int) {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	size := c.QueryInt("page_size", defaultPageSize)
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return size, (page - 1) * size
}

// toIDs normalizes a list of ids, skipping blanks. Malformed entries are returned in invalid.
func toIDs(raw []string) (ids []domain.ID, invalid []string) {
	present := make([]string, 0, len(raw))
	for _, r := range raw {
		if r = strings.TrimSpace(r); r != "" {
			present = append(present, r)
		}
	}
	return domain.ParseIDs(present)
}
