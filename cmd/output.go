package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mattsolo1/grove-campus/pkg/cache"
	"github.com/mattsolo1/grove-campus/pkg/service"
)

// outputFlags selects a machine readable format over the human tables.
type outputFlags struct {
	json bool
	yaml bool
}

func (o *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.json, "json", false, "Output in JSON format")
	cmd.Flags().BoolVar(&o.yaml, "yaml", false, "Output in YAML format")
	cmd.MarkFlagsMutuallyExclusive("json", "yaml")
}

func (o outputFlags) structured() bool {
	return o.json || o.yaml
}

// write prints v in the selected format.
func (o outputFlags) write(v any) error {
	if o.yaml {
		encoder := yaml.NewEncoder(os.Stdout)
		encoder.SetIndent(2)
		defer encoder.Close()
		return encoder.Encode(v)
	}
	return outputJSON(v)
}

func outputJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// requireSession resumes the stored session or fails with a hint.
func requireSession(ctx context.Context, s *service.Service) error {
	ok, err := s.Resume(ctx)
	if err != nil {
		return fmt.Errorf("resume session: %w", err)
	}
	if !ok {
		return fmt.Errorf("not logged in, run 'campus login' first")
	}
	return nil
}

// latest drains a revalidation stream. When the portal cannot be reached
// the cached value is still shown.
func latest[T any](s *service.Service, what string, updates <-chan cache.Update[T]) (T, error) {
	value, stale, err := cache.Latest(updates)
	if err != nil && !stale {
		return value, err
	}
	if err != nil {
		s.Logger.WithError(err).Warnf("showing cached %s", what)
	}
	return value, nil
}

func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
