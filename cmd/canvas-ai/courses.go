package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/canvasai/canvas-ai/internal/canvas"
)

var coursesCmd = &cobra.Command{
	Use:   "courses",
	Short: "Browse Canvas courses",
}

var coursesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your active courses",
	Run: func(cmd *cobra.Command, args []string) {
		client, err := getClient()
		if err != nil {
			fail(err)
		}
		courses, err := client.ListCourses(rootCtx)
		if err != nil {
			fail(canvas.MapError(err))
		}
		if courses == nil {
			courses = []canvas.Course{}
		}

		logEvent("courses list", fmt.Sprintf("count=%d", len(courses)))

		lines := make([]string, 0, len(courses))
		for _, c := range courses {
			name := c.Name
			if name == "" {
				name = "Unnamed course"
			}
			lines = append(lines, fmt.Sprintf("- %d: %s", c.ID, name))
		}
		if len(lines) == 0 {
			lines = []string{"No courses found."}
		}
		emit("courses.list", map[string]any{"courses": courses}, lines...)
	},
}

func init() {
	coursesCmd.AddCommand(coursesListCmd)
	rootCmd.AddCommand(coursesCmd)
}
