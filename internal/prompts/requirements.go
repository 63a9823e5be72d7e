package prompts

import (
	"fmt"
	"strings"
)

// requirementsPrompt turns high-level requirements into an instruction to
// write a full EARS-format requirements document.
func requirementsPrompt() Entry {
	return Entry{
		Name:        "generate-requirements",
		Title:       "Generate requirements document",
		Description: "Generate requirements.md in EARS format",
		Arguments: []ArgSpec{
			{
				Name: "requirements",
				Description: "High-level requirements for the application. " +
					"Example: 'a Vue.js todo app with task creation, completion tracking, " +
					"and local-storage persistence'",
				Required: true,
			},
		},
		render: renderRequirements,
	}
}

func renderRequirements(args map[string]string) (string, error) {
	var sb strings.Builder

	sb.WriteString("Based on the following high-level requirements, generate a detailed ")
	sb.WriteString("requirements document using the EARS (Easy Approach to Requirements Syntax) format.\n\n")

	sb.WriteString("High-level requirements:\n")
	sb.WriteString(args["requirements"])
	sb.WriteString("\n\n")

	sb.WriteString(`Produce a complete requirements.md document with these sections:

# Requirements Document

## 1. Project Overview
- Project name
- Project description
- Target users
- Primary goals

## 2. Functional Requirements (EARS format)

Use these EARS templates:
- **WHEN** <optional precondition or trigger> **THE SYSTEM SHALL** <system response>
- **WHERE** <optional feature context> **THE SYSTEM SHALL** <system response>
- **WHILE** <optional state condition> **THE SYSTEM SHALL** <system response>

Examples:
- WHEN the user clicks the "add task" button THE SYSTEM SHALL display the task creation form
- WHERE the user is on the task list page THE SYSTEM SHALL display all incomplete tasks
- WHILE the user is editing a task THE SYSTEM SHALL autosave changes

## 3. Non-Functional Requirements
- Performance requirements
- Usability requirements
- Compatibility requirements
- Security requirements

## 4. Constraints
- Technical constraints
- Business constraints
- Time constraints

## 5. Acceptance Criteria
- Functional acceptance criteria
- Performance acceptance criteria
- User experience acceptance criteria

Make the requirements detailed, unambiguous, and testable. Save the generated
content to specs/requirements.md.
`)

	fmt.Fprintf(&sb, "\nGenerated at: %s\n", timeNow().Format("2006-01-02 15:04:05"))
	return sb.String(), nil
}
