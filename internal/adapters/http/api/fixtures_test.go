package api_test

import (
	"context"
	"strings"

	"github.com/okian/creditscore/internal/adapters/dataset"
	"github.com/okian/creditscore/internal/adapters/repository"
	"github.com/okian/creditscore/internal/domain/scoring"
)

type csvString struct {
	data string
}

func (c *csvString) String() string { return "inline" }

func (c *csvString) Load(ctx context.Context) (*repository.Table, error) {
	return dataset.ReadCSV(ctx, strings.NewReader(c.data), "")
}

type staticModel struct {
	m scoring.Model
}

func (s *staticModel) String() string { return "inline" }

func (s *staticModel) Load(context.Context) (scoring.Model, error) { return s.m, nil }
