package models

// Category is static reference data from the YouTube category taxonomy,
// seeded by migration and read-only afterwards.
type Category struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
	Slug string `db:"slug" json:"slug"`
}
