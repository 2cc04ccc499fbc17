package domain

// Department is a municipal unit responsible for one or more categories.
type Department struct {
	ID         string   `yaml:"id"`
	Name       string   `yaml:"name"`
	Email      string   `yaml:"email"`
	Phone      string   `yaml:"phone"`
	Categories []string `yaml:"categories"`
}

// Handles reports whether the department covers category.
func (d Department) Handles(category string) bool {
	for _, c := range d.Categories {
		if c == category {
			return true
		}
	}
	return false
}
