package handler

import (
	"strconv"
	"strings"

	"learnfinity/internal/delivery/http/middleware"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

func badRequest(err error) error {
	return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
}

func paramUUID(c fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Params(name)))
	if err != nil {
		return uuid.Nil, badRequest(err)
	}
	return id, nil
}

func queryUUID(c fiber.Ctx, name string) (uuid.NullUUID, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return uuid.NullUUID{}, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.NullUUID{}, badRequest(err)
	}
	return uuid.NullUUID{UUID: id, Valid: true}, nil
}

func pageParams(c fiber.Ctx) (int, int, error) {
	limit, err := queryInt(c, "limit", 20)
	if err != nil {
		return 0, 0, err
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

func queryInt(c fiber.Ctx, key string, defaultVal int) (int, error) {
	s := strings.TrimSpace(c.Query(key))
	if s == "" {
		return defaultVal, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, badRequest(err)
	}
	return v, nil
}
