package prompts

import (
	"fmt"
	"strings"
)

// codePrompt embeds the design document verbatim and instructs the model
// to implement it.
func codePrompt() Entry {
	return Entry{
		Name:        "generate-code-from-design",
		Title:       "Generate code from design",
		Description: "Generate a code implementation from design.md",
		Arguments: []ArgSpec{
			{
				Name:        "design_path",
				Description: "Path to the design document",
				Default:     "specs/design.md",
			},
		},
		render: renderCode,
	}
}

func renderCode(args map[string]string) (string, error) {
	path := args["design_path"]
	content := readArtifact(path, "design document")

	var sb strings.Builder
	sb.WriteString("Based on the following design document, generate a complete code implementation.\n\n")
	sb.WriteString("Design document content:\n```\n")
	sb.WriteString(content)
	sb.WriteString("\n```\n\n")

	sb.WriteString(`Generate the following from the design document:

## 1. Project Structure
- Create an appropriate directory layout
- Generate required configuration files
- Set up dependency management files

## 2. Core Implementation
- Implement every core module
- Follow the architecture from the design document
- Include appropriate error handling

## 3. Data Layer
- Implement the data models
- Implement the data access layer
- Include data validation logic

## 4. Business Logic
- Implement the core business logic
- Implement the service layer
- Include business rule validation

## 5. Interface Layer
- Implement the API endpoints
- Implement the user interface (if applicable)
- Include input validation and response handling

## 6. Configuration and Deployment
- Generate configuration files
- Create deployment scripts
- Include environment variable configuration

## 7. Tests
- Generate unit tests
- Generate integration tests
- Include test data and mocks

## 8. Documentation
- Generate a README.md
- Create API documentation
- Include usage instructions

Make sure the generated code:
- Follows best practices and coding conventions
- Includes appropriate comments and documentation
- Is readable and maintainable
- Stays consistent with the design document

Save the generated files to their proper locations under the project root.
`)

	fmt.Fprintf(&sb, "\nGenerated at: %s\n", timeNow().Format("2006-01-02 15:04:05"))
	return sb.String(), nil
}
