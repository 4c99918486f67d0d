package taxonomy

import (
	"encoding/json"
	"fmt"
)

// Category is one top-level classification bucket.
type Category struct {
	ID    string `json:"category_id"`
	Title string `json:"title"`
}

// Subcategory belongs to exactly one category.
type Subcategory struct {
	ID         string `json:"subcategory_id"`
	Title      string `json:"title"`
	CategoryID string `json:"-"`
}

// Taxonomy is a full, read-only snapshot of the category tree. The
// classifier only ever chooses from pairs present in one snapshot.
type Taxonomy struct {
	Categories    []Category
	Subcategories map[string][]Subcategory // keyed by category id
}

// Validate checks that the snapshot is complete: at least one category,
// every category has subcategories, and no subcategory points outside
// the snapshot. A partial taxonomy is invalid data for classification.
func (t Taxonomy) Validate() error {
	if len(t.Categories) == 0 {
		return fmt.Errorf("taxonomy has no categories")
	}
	known := make(map[string]bool, len(t.Categories))
	for _, c := range t.Categories {
		known[c.ID] = true
		if len(t.Subcategories[c.ID]) == 0 {
			return fmt.Errorf("category %q has no subcategories", c.ID)
		}
	}
	for catID, subs := range t.Subcategories {
		if !known[catID] {
			return fmt.Errorf("subcategories reference unknown category %q", catID)
		}
		for _, s := range subs {
			if s.CategoryID != "" && s.CategoryID != catID {
				return fmt.Errorf("subcategory %q filed under %q but references %q", s.ID, catID, s.CategoryID)
			}
		}
	}
	return nil
}

// CategoryByID returns the category with the given id.
func (t Taxonomy) CategoryByID(id string) (Category, bool) {
	for _, c := range t.Categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// SubcategoryByID returns the subcategory with the given id inside the
// given category.
func (t Taxonomy) SubcategoryByID(categoryID, id string) (Subcategory, bool) {
	for _, s := range t.Subcategories[categoryID] {
		if s.ID == id {
			return s, true
		}
	}
	return Subcategory{}, false
}

// SubcategoryIDs returns the ids of every subcategory in the snapshot,
// in category order. Used to derive Google News feed URLs.
func (t Taxonomy) SubcategoryIDs() []string {
	var ids []string
	for _, c := range t.Categories {
		for _, s := range t.Subcategories[c.ID] {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

// PromptJSON renders the snapshot as the compact JSON document embedded
// in the classification prompt: id+title pairs only, no descriptions.
func (t Taxonomy) PromptJSON() (string, error) {
	type subEntry struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}
	type catEntry struct {
		ID            string     `json:"id"`
		Title         string     `json:"title"`
		Subcategories []subEntry `json:"subcategories"`
	}
	doc := struct {
		Categories []catEntry `json:"categories"`
	}{}
	for _, c := range t.Categories {
		entry := catEntry{ID: c.ID, Title: c.Title}
		for _, s := range t.Subcategories[c.ID] {
			entry.Subcategories = append(entry.Subcategories, subEntry{ID: s.ID, Title: s.Title})
		}
		doc.Categories = append(doc.Categories, entry)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal taxonomy: %w", err)
	}
	return string(raw), nil
}
