// Package report assembles a statistics snapshot and exports it.
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/spec-kit/paydesk/internal/domain"
	"github.com/spec-kit/paydesk/internal/service"
)

// Formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Statistics is the read surface a report is built from.
type Statistics interface {
	GlobalTotal(ctx context.Context) (float64, error)
	TotalAgents(ctx context.Context) (int, error)
	TotalDepartments(ctx context.Context) (int, error)
	PaymentDistribution(ctx context.Context) (map[domain.PaymentType]int, error)
	RankAgentsByTotalPayments(ctx context.Context) ([]service.RankedAgent, error)
	DetectUnusualPayment(ctx context.Context, threshold float64) (domain.Payment, bool, error)
}

// Report is a point-in-time statistics snapshot.
type Report struct {
	GeneratedAt      time.Time      `json:"generated_at" yaml:"generated_at"`
	GlobalTotal      float64        `json:"global_total" yaml:"global_total"`
	TotalAgents      int            `json:"total_agents" yaml:"total_agents"`
	TotalDepartments int            `json:"total_departments" yaml:"total_departments"`
	Distribution     []TypeCount    `json:"distribution" yaml:"distribution"`
	Ranking          []RankEntry    `json:"ranking" yaml:"ranking"`
	Threshold        float64        `json:"unusual_threshold" yaml:"unusual_threshold"`
	Unusual          *PaymentRecord `json:"unusual_payment,omitempty" yaml:"unusual_payment,omitempty"`
}

// TypeCount is one distribution bucket.
type TypeCount struct {
	Type  domain.PaymentType `json:"type" yaml:"type"`
	Count int                `json:"count" yaml:"count"`
}

// RankEntry is one line of the agent ranking.
type RankEntry struct {
	Rank    int              `json:"rank" yaml:"rank"`
	AgentID string           `json:"agent_id" yaml:"agent_id"`
	Name    string           `json:"name" yaml:"name"`
	Email   string           `json:"email" yaml:"email"`
	Role    domain.AgentRole `json:"role" yaml:"role"`
	Total   float64          `json:"total" yaml:"total"`
}

// PaymentRecord is the exported view of a payment.
type PaymentRecord struct {
	ID                 string             `json:"id" yaml:"id"`
	AgentID            string             `json:"agent_id" yaml:"agent_id"`
	Type               domain.PaymentType `json:"type" yaml:"type"`
	Amount             float64            `json:"amount" yaml:"amount"`
	Reason             string             `json:"reason" yaml:"reason"`
	Date               string             `json:"date" yaml:"date"`
	ConditionValidated bool               `json:"condition_validated" yaml:"condition_validated"`
}

// Build collects the snapshot. Each figure comes from its own scan.
func Build(ctx context.Context, stats Statistics, threshold float64, now time.Time) (*Report, error) {
	r := &Report{GeneratedAt: now.UTC(), Threshold: threshold}

	var err error
	if r.GlobalTotal, err = stats.GlobalTotal(ctx); err != nil {
		return nil, err
	}
	if r.TotalAgents, err = stats.TotalAgents(ctx); err != nil {
		return nil, err
	}
	if r.TotalDepartments, err = stats.TotalDepartments(ctx); err != nil {
		return nil, err
	}

	dist, err := stats.PaymentDistribution(ctx)
	if err != nil {
		return nil, err
	}
	r.Distribution = make([]TypeCount, 0, len(dist))
	for _, t := range domain.PaymentTypes {
		if n, ok := dist[t]; ok {
			r.Distribution = append(r.Distribution, TypeCount{Type: t, Count: n})
		}
	}
	// Types outside the known set still show up, after the known ones.
	var extra []TypeCount
	for t, n := range dist {
		if !t.Valid() {
			extra = append(extra, TypeCount{Type: t, Count: n})
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i].Type < extra[j].Type })
	r.Distribution = append(r.Distribution, extra...)

	ranked, err := stats.RankAgentsByTotalPayments(ctx)
	if err != nil {
		return nil, err
	}
	r.Ranking = make([]RankEntry, 0, len(ranked))
	for i, ra := range ranked {
		r.Ranking = append(r.Ranking, RankEntry{
			Rank:    i + 1,
			AgentID: ra.Agent.ID,
			Name:    ra.Agent.FullName(),
			Email:   ra.Agent.Email,
			Role:    ra.Agent.Role,
			Total:   ra.Total,
		})
	}

	unusual, found, err := stats.DetectUnusualPayment(ctx, threshold)
	if err != nil {
		return nil, err
	}
	if found {
		rec := NewPaymentRecord(unusual)
		r.Unusual = &rec
	}
	return r, nil
}

// NewPaymentRecord converts a payment for export.
func NewPaymentRecord(p domain.Payment) PaymentRecord {
	return PaymentRecord{
		ID:                 p.ID,
		AgentID:            p.AgentID,
		Type:               p.Type,
		Amount:             p.Amount,
		Reason:             p.Reason,
		Date:               p.Date.Format(time.DateOnly),
		ConditionValidated: p.ConditionValidated,
	}
}

// Encode renders r in format and returns the body with its content type.
func Encode(r *Report, format string) ([]byte, string, error) {
	switch strings.ToLower(format) {
	case FormatJSON, "":
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r); err != nil {
			return nil, "", fmt.Errorf("encode json report: %w", err)
		}
		return buf.Bytes(), "application/json", nil
	case FormatYAML, "yml":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return nil, "", fmt.Errorf("encode yaml report: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, "", fmt.Errorf("encode yaml report: %w", err)
		}
		return buf.Bytes(), "application/yaml", nil
	default:
		return nil, "", fmt.Errorf("unknown report format %q", format)
	}
}

// Extension returns the file extension used for format.
func Extension(format string) string {
	if f := strings.ToLower(format); f == FormatYAML || f == "yml" {
		return FormatYAML
	}
	return FormatJSON
}
