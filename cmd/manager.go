package cmd

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
)

// Manager handles command registration, parsing, and execution
type Manager struct {
	mu   sync.RWMutex
	api  API
	cmds map[string]Command
}

func NewManager(api API) *Manager {
	return &Manager{
		api:  api,
		cmds: make(map[string]Command),
	}
}

// Register registers a custom command
func (m *Manager) Register(cmd Command) error {
	if cmd == nil {
		return fmt.Errorf("command cannot be nil")
	}

	name := cmd.Name()
	if name == "" {
		return fmt.Errorf("command name cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.cmds[name]; exists {
		return fmt.Errorf("command already registered: %s", name)
	}

	m.cmds[name] = cmd
	return nil
}

// Unregister removes a registered command
func (m *Manager) Unregister(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.cmds[name]; !exists {
		return fmt.Errorf("command not found: %s", name)
	}

	delete(m.cmds, name)
	return nil
}

// Get returns a command by name
func (m *Manager) Get(name string) (Command, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cmd, exists := m.cmds[name]
	if !exists {
		return nil, fmt.Errorf("command not found: %s", name)
	}

	return cmd, nil
}

// List returns all registered commands ordered by name
func (m *Manager) List() []Command {
	m.mu.RLock()
	defer m.mu.RUnlock()

	commands := make([]Command, 0, len(m.cmds))
	for _, cmd := range m.cmds {
		commands = append(commands, cmd)
	}
	sort.Slice(commands, func(i, j int) bool {
		return commands[i].Name() < commands[j].Name()
	})

	return commands
}

// Execute parses and executes a command
func (m *Manager) Execute(ctx context.Context, writer io.Writer, args ...string) (int, error) {
	if len(args) == 0 {
		return 1, fmt.Errorf("no command specified")
	}

	cmd, err := m.Get(args[0])
	if err != nil {
		return 1, err
	}

	parsed, err := NewParser(cmd.GetFlags()).Parse(args[1:])
	if err != nil {
		return 1, fmt.Errorf("parse error: %w", err)
	}

	return cmd.Execute(ctx, m.api, parsed, writer)
}

// Help writes a summary of every registered command.
func (m *Manager) Help(writer io.Writer) {
	for _, cmd := range m.List() {
		fmt.Fprintf(writer, "  %-10s %s\n", cmd.Name(), cmd.Description())
		if usage := cmd.Usage(); usage != "" {
			fmt.Fprintf(writer, "  %-10s usage: %s\n", "", usage)
		}
	}
}
