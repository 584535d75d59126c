package domain

// CourseStructure is the canonical representation of a course outline inside
// this service. It mirrors the YAML manifest stored alongside the lesson
// content (src/content/course.yaml).
type CourseStructure struct {
	Title     string       `yaml:"title" json:"title"`
	Structure []CourseItem `yaml:"structure" json:"structure"`
}

// CourseItem is one node of the outline tree. A node is either a leaf
// (Path set, pointing at an MDX lesson) or a grouping node (nested Items).
// Order is whatever the YAML source says; nothing is deduplicated.
type CourseItem struct {
	Title string       `yaml:"title" json:"title"`
	Path  string       `yaml:"path,omitempty" json:"path,omitempty"`
	Items []CourseItem `yaml:"items,omitempty" json:"items,omitempty"`
}

// IsLeaf reports whether the item points at a lesson file.
func (c CourseItem) IsLeaf() bool {
	return c.Path != ""
}

// Leaves flattens the outline into its lesson items, depth-first, keeping
// the manifest's insertion order.
func (s CourseStructure) Leaves() []CourseItem {
	var out []CourseItem
	var walk func(items []CourseItem)
	walk = func(items []CourseItem) {
		for _, it := range items {
			if it.IsLeaf() {
				out = append(out, it)
			}
			if len(it.Items) > 0 {
				walk(it.Items)
			}
		}
	}
	walk(s.Structure)
	return out
}
