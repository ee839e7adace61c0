package audio

import (
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// PipeWire queries the PipeWire graph through pw-link
type PipeWire struct{}

// NewPipeWire creates a new PipeWire instance
func NewPipeWire() *PipeWire {
	return &PipeWire{}
}

// ListPorts returns all output ports, which is where capture sources appear
func (pw *PipeWire) ListPorts() ([]string, error) {
	cmd := exec.Command("pw-link", "-o")
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to list PipeWire ports: %w", err)
	}

	return parsePortList(string(output)), nil
}

// ListNodes returns the distinct node names owning the listed ports
func (pw *PipeWire) ListNodes() ([]string, error) {
	ports, err := pw.ListPorts()
	if err != nil {
		return nil, err
	}

	return nodesFromPorts(ports), nil
}

// ValidatePort checks if a specific port or node exists and has no duplicates
func (pw *PipeWire) ValidatePort(portName string) error {
	if portName == "" {
		return nil
	}

	allPorts, err := pw.ListPorts()
	if err != nil {
		return fmt.Errorf("failed to check port: %w", err)
	}

	return validatePortInList(portName, allPorts)
}

func validatePortInList(portName string, allPorts []string) error {
	if portName == "" {
		return nil
	}

	// A bare node name is valid when any of its ports is present
	if !strings.Contains(portName, ":") {
		for _, node := range nodesFromPorts(allPorts) {
			if node == portName {
				return nil
			}
		}
		return fmt.Errorf("node not found: %s", portName)
	}

	duplicates := findPortDuplicatesInList(portName, allPorts)
	if len(duplicates) == 0 {
		return fmt.Errorf("port not found: %s", portName)
	}
	if len(duplicates) > 1 {
		return fmt.Errorf("duplicate sources detected for '%s': %v. Please close conflicting applications", portName, duplicates)
	}

	return nil
}

// findPortDuplicatesInList finds all ports with exactly the same name
func findPortDuplicatesInList(portName string, allPorts []string) []string {
	var duplicates []string
	for _, port := range allPorts {
		if port == portName {
			duplicates = append(duplicates, port)
		}
	}

	return duplicates
}

func parsePortList(output string) []string {
	var ports []string

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "Input ports:") || strings.HasPrefix(line, "Output ports:") {
			continue
		}
		// pw-link prefixes link lines with |-> or |<-
		if strings.HasPrefix(line, "|") {
			continue
		}
		ports = append(ports, line)
	}

	return ports
}

func nodesFromPorts(ports []string) []string {
	seen := make(map[string]bool)
	var nodes []string

	for _, port := range ports {
		idx := strings.LastIndex(port, ":")
		if idx <= 0 {
			continue
		}
		node := port[:idx]
		if !seen[node] {
			seen[node] = true
			nodes = append(nodes, node)
		}
	}

	return nodes
}

// available reports whether a PipeWire command line tool is installed
func available(tool string) bool {
	if _, err := exec.LookPath(tool); err != nil {
		slog.Debug("PipeWire tool not found", "tool", tool, "error", err)
		return false
	}
	return true
}
