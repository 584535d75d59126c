package domain

import (
	"testing"
)

func TestCourseItemIsLeaf(t *testing.T) {
	leaf := CourseItem{Title: "Lesson 1", Path: "a1/lesson-1"}
	if !leaf.IsLeaf() {
		t.Error("Expected item with Path to be a leaf")
	}

	group := CourseItem{Title: "Unit A1", Items: []CourseItem{leaf}}
	if group.IsLeaf() {
		t.Error("Expected item without Path not to be a leaf")
	}
}

func TestLeavesKeepsInsertionOrder(t *testing.T) {
	structure := CourseStructure{
		Title: "Test Course",
		Structure: []CourseItem{
			{Title: "Intro", Path: "intro"},
			{
				Title: "Unit A1",
				Items: []CourseItem{
					{Title: "Lesson 1", Path: "a1/lesson-1"},
					{
						Title: "Grammar",
						Items: []CourseItem{
							{Title: "Articles", Path: "a1/grammar/articles"},
						},
					},
					{Title: "Lesson 2", Path: "a1/lesson-2"},
				},
			},
			{Title: "Outro", Path: "outro"},
		},
	}

	leaves := structure.Leaves()
	want := []string{"intro", "a1/lesson-1", "a1/grammar/articles", "a1/lesson-2", "outro"}

	if len(leaves) != len(want) {
		t.Fatalf("Expected %d leaves, got %d", len(want), len(leaves))
	}
	for i, p := range want {
		if leaves[i].Path != p {
			t.Errorf("Expected leaf %d to be '%s', got '%s'", i, p, leaves[i].Path)
		}
	}
}

func TestLeavesEmptyStructure(t *testing.T) {
	var structure CourseStructure
	if got := structure.Leaves(); len(got) != 0 {
		t.Errorf("Expected no leaves for empty structure, got %d", len(got))
	}
}
