package repository

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/spec-kit/civic-intake/internal/domain"
)

// DepartmentRepository resolves which municipal unit handles a category.
type DepartmentRepository interface {
	List(ctx context.Context) ([]domain.Department, error)
	ForCategory(ctx context.Context, category string) ([]domain.Department, error)
}

type departmentFile struct {
	Departments []domain.Department `yaml:"departments"`
}

type departmentRepository struct {
	departments []domain.Department
}

// NewDepartmentRepository builds a read-only directory over a fixed list.
func NewDepartmentRepository(departments []domain.Department) DepartmentRepository {
	copied := make([]domain.Department, len(departments))
	copy(copied, departments)
	return &departmentRepository{departments: copied}
}

// LoadDepartmentRepository reads the department directory from a YAML file.
// An empty path yields an empty directory.
func LoadDepartmentRepository(path string) (DepartmentRepository, error) {
	if path == "" {
		return NewDepartmentRepository(nil), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read departments file: %w", err)
	}
	var file departmentFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse departments file: %w", err)
	}
	seen := make(map[string]struct{}, len(file.Departments))
	for i, dept := range file.Departments {
		if dept.ID == "" {
			return nil, fmt.Errorf("department %d: id required", i)
		}
		if _, dup := seen[dept.ID]; dup {
			return nil, fmt.Errorf("department %q: duplicate id", dept.ID)
		}
		seen[dept.ID] = struct{}{}
		for _, category := range dept.Categories {
			if !domain.IsKnownCategory(category) {
				return nil, fmt.Errorf("department %q: unknown category %q", dept.ID, category)
			}
		}
	}
	return NewDepartmentRepository(file.Departments), nil
}

func (r *departmentRepository) List(_ context.Context) ([]domain.Department, error) {
	result := make([]domain.Department, len(r.departments))
	copy(result, r.departments)
	return result, nil
}

func (r *departmentRepository) ForCategory(_ context.Context, category string) ([]domain.Department, error) {
	var result []domain.Department
	for _, dept := range r.departments {
		if dept.Handles(category) {
			result = append(result, dept)
		}
	}
	return result, nil
}
