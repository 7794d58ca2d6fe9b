package frontmatter

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// UpdateFields sets fields in the frontmatter of an existing note and leaves
// everything else, body and user-added keys included, as it was.
func UpdateFields(content []byte, updates map[string]interface{}) ([]byte, error) {
	frontmatterStr, body, err := extractFrontmatterString(content)
	if err != nil {
		return nil, err
	}

	// If no frontmatter exists, create new one
	if frontmatterStr == "" {
		yamlBytes, err := yaml.Marshal(updates)
		if err != nil {
			return nil, fmt.Errorf("marshaling new frontmatter: %w", err)
		}

		var result bytes.Buffer
		result.WriteString("---\n")
		result.Write(yamlBytes)
		result.WriteString("---\n")
		result.Write(body)
		return result.Bytes(), nil
	}

	var root yaml.Node
	if err := yaml.Unmarshal([]byte(frontmatterStr), &root); err != nil {
		return nil, fmt.Errorf("unmarshaling YAML: %w", err)
	}
	if len(root.Content) == 0 {
		return nil, fmt.Errorf("no YAML document found")
	}
	doc := root.Content[0]
	for key, value := range updates {
		updateNodeValue(doc, key, value)
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&root); err != nil {
		return nil, fmt.Errorf("encoding YAML: %w", err)
	}

	var result bytes.Buffer
	result.WriteString("---\n")
	result.WriteString(strings.TrimSpace(buf.String()))
	result.WriteString("\n---\n")
	result.Write(body)
	return result.Bytes(), nil
}

// updateNodeValue updates a specific field in a YAML node.
func updateNodeValue(node *yaml.Node, key string, value interface{}) {
	if node.Kind != yaml.MappingNode {
		return
	}

	for i := 0; i < len(node.Content)-1; i += 2 {
		if node.Content[i].Value == key {
			valueNode := node.Content[i+1]
			valueNode.Kind = yaml.ScalarNode
			valueNode.Style = scalarStyle(value)
			valueNode.Value = fmt.Sprint(value)
			valueNode.Tag = resolveYAMLTag(value)
			valueNode.Content = nil
			return
		}
	}

	// Key not found, add it
	node.Content = append(node.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: key, Tag: "!!str"},
		&yaml.Node{Kind: yaml.ScalarNode, Value: fmt.Sprint(value), Tag: resolveYAMLTag(value), Style: scalarStyle(value)},
	)
}

// resolveYAMLTag determines the appropriate YAML tag for a value.
func resolveYAMLTag(value interface{}) string {
	switch value.(type) {
	case string:
		return "!!str"
	case int, int64, int32:
		return "!!int"
	case float64, float32:
		return "!!float"
	case bool:
		return "!!bool"
	default:
		return "!!str"
	}
}

// scalarStyle quotes strings so timestamps stay strings.
func scalarStyle(value interface{}) yaml.Style {
	if _, ok := value.(string); ok {
		return yaml.DoubleQuotedStyle
	}
	return 0
}

// extractFrontmatterString extracts the raw YAML string between delimiters.
func extractFrontmatterString(content []byte) (string, []byte, error) {
	contentStr := string(content)

	if !strings.HasPrefix(contentStr, "---\n") {
		return "", content, nil
	}

	startIdx := len("---\n")
	endIdx := strings.Index(contentStr[startIdx:], "\n---\n")
	if endIdx == -1 {
		return "", nil, fmt.Errorf("invalid frontmatter: no closing delimiter found")
	}
	endIdx += startIdx

	bodyStart := endIdx + len("\n---\n")
	if bodyStart > len(contentStr) {
		bodyStart = len(contentStr)
	}

	return contentStr[startIdx:endIdx], []byte(contentStr[bodyStart:]), nil
}
