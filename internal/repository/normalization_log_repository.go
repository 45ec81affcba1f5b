package repository

import (
	"context"
	"time"

	"learnfinity/internal/database"
	"learnfinity/internal/domain/normalize"

	"github.com/google/uuid"
)

type NormalizationLog struct {
	ID              uuid.UUID
	EmployeeSkillID uuid.NullUUID
	RawText         string
	MatchedSkillID  uuid.NullUUID
	Method          normalize.Method
	Confidence      *float64
	CreatedAt       time.Time
}

type NormalizationLogRepository interface {
	Insert(ctx context.Context, entry NormalizationLog) error
	ListByEmployeeSkill(ctx context.Context, employeeSkillID uuid.UUID) ([]NormalizationLog, error)
}

type PostgresNormalizationLogRepository struct {
	db database.DB
}

func NewPostgresNormalizationLogRepository(db database.DB) *PostgresNormalizationLogRepository {
	return &PostgresNormalizationLogRepository{db: db}
}

func (r *PostgresNormalizationLogRepository) Insert(ctx context.Context, entry NormalizationLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO normalization_logs (id, employee_skill_id, raw_text, matched_skill_id, method, confidence)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.EmployeeSkillID, entry.RawText, entry.MatchedSkillID, string(entry.Method), entry.Confidence,
	)
	return err
}

func (r *PostgresNormalizationLogRepository) ListByEmployeeSkill(ctx context.Context, employeeSkillID uuid.UUID) ([]NormalizationLog, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, employee_skill_id, raw_text, matched_skill_id, method, confidence, created_at
		 FROM normalization_logs
		 WHERE employee_skill_id = $1
		 ORDER BY created_at ASC`,
		employeeSkillID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]NormalizationLog, 0)
	for rows.Next() {
		var l NormalizationLog
		var method string
		var conf *float32
		if err := rows.Scan(&l.ID, &l.EmployeeSkillID, &l.RawText, &l.MatchedSkillID, &method, &conf, &l.CreatedAt); err != nil {
			return nil, err
		}
		l.Method = normalize.Method(method)
		if conf != nil {
			v := float64(*conf)
			l.Confidence = &v
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
