package prompts

import (
	"fmt"
	"os"
	"strings"
)

// designPrompt embeds the requirements document verbatim and instructs the
// model to derive a design document from it.
func designPrompt() Entry {
	return Entry{
		Name:        "generate-design-from-requirements",
		Title:       "Generate design from requirements",
		Description: "Generate design.md from requirements.md",
		Arguments: []ArgSpec{
			{
				Name:        "requirements_path",
				Description: "Path to the requirements document",
				Default:     "specs/requirements.md",
			},
		},
		render: renderDesign,
	}
}

func renderDesign(args map[string]string) (string, error) {
	path := args["requirements_path"]
	content := readArtifact(path, "requirements document")

	var sb strings.Builder
	sb.WriteString("Based on the following requirements document, generate a detailed design document.\n\n")
	sb.WriteString("Requirements document content:\n```\n")
	sb.WriteString(content)
	sb.WriteString("\n```\n\n")

	sb.WriteString(`Produce a complete design.md document with these sections:

# Design Document

## 1. System Architecture
- Overall architecture
- Technology stack choices
- Architectural decisions and rationale

## 2. Module Design
- Core module breakdown
- Module responsibilities
- Inter-module interactions

## 3. Data Design
- Data model design
- Database design (if applicable)
- Data flow design

## 4. Interface Design
- API design
- User interface design
- External interface design

## 5. Detailed Design
- Key algorithms
- Core feature implementation approach
- Error handling strategy

## 6. Security Design
- Authentication and authorization
- Data protection
- Security risk assessment

## 7. Performance Design
- Optimization strategy
- Caching strategy
- Scalability considerations

## 8. Deployment Design
- Deployment architecture
- Environment configuration
- Monitoring and logging

Keep the design consistent with the requirements document and provide enough
technical detail for implementation. Save the generated content to
specs/design.md.
`)

	fmt.Fprintf(&sb, "\nGenerated at: %s\n", timeNow().Format("2006-01-02 15:04:05"))
	return sb.String(), nil
}

// readArtifact reads a referenced spec artifact verbatim. A missing or
// unreadable file is reported inside the prompt text rather than failing
// the render, so the model knows what could not be loaded.
func readArtifact(path, label string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Sprintf("The %s does not exist: %s", label, path)
		}
		return fmt.Sprintf("The %s could not be read: %v", label, err)
	}
	return string(data)
}
