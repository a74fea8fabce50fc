package report

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/spec-kit/paydesk/internal/domain"
	"github.com/spec-kit/paydesk/internal/repository/memory"
	"github.com/spec-kit/paydesk/internal/service"
)

func seededStatistics(t *testing.T) *service.StatisticsService {
	t.Helper()
	ctx := context.Background()
	deps := service.DependenciesFromStore(memory.New().Repositories())
	directory := service.NewDirectoryService(deps)
	payments := service.NewPaymentService(deps)

	dept, err := directory.CreateDepartment(ctx, "Finance", nil)
	require.NoError(t, err)
	worker, err := directory.CreateAgent(ctx, service.AgentInput{
		LastName: "Martin", FirstName: "Léa", Email: "lea@x.io", Credential: "pass", Role: domain.RoleWorker,
		DepartmentID: &dept.ID,
	})
	require.NoError(t, err)
	director, err := directory.CreateAgent(ctx, service.AgentInput{
		LastName: "Bernard", FirstName: "Hugo", Email: "hugo@x.io", Credential: "pass", Role: domain.RoleDirector,
	})
	require.NoError(t, err)

	date := time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC)
	for _, p := range []struct {
		agent string
		typ   domain.PaymentType
		amt   float64
	}{
		{worker.ID, domain.PaymentSalary, 2100},
		{director.ID, domain.PaymentSalary, 5200},
		{director.ID, domain.PaymentBonus, 800},
	} {
		_, err := payments.CreatePayment(ctx, p.agent, service.PaymentInput{
			Type: p.typ, Amount: p.amt, Reason: "may", ConditionValidated: true, Date: &date,
		})
		require.NoError(t, err)
	}
	return service.NewStatisticsService(deps)
}

func TestBuild(t *testing.T) {
	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	r, err := Build(context.Background(), seededStatistics(t), 5000, now)
	require.NoError(t, err)

	assert.Equal(t, now.UTC(), r.GeneratedAt)
	assert.Equal(t, 8100.0, r.GlobalTotal)
	assert.Equal(t, 2, r.TotalAgents)
	assert.Equal(t, 1, r.TotalDepartments)
	assert.Equal(t, []TypeCount{{domain.PaymentSalary, 2}, {domain.PaymentBonus, 1}}, r.Distribution)

	require.Len(t, r.Ranking, 2)
	assert.Equal(t, 1, r.Ranking[0].Rank)
	assert.Equal(t, "Hugo Bernard", r.Ranking[0].Name)
	assert.Equal(t, 6000.0, r.Ranking[0].Total)

	require.NotNil(t, r.Unusual)
	assert.Equal(t, 5200.0, r.Unusual.Amount)
	assert.Equal(t, "2024-05-31", r.Unusual.Date)
}

func TestBuildWithoutUnusualPayment(t *testing.T) {
	r, err := Build(context.Background(), seededStatistics(t), 1e9, time.Now())
	require.NoError(t, err)
	assert.Nil(t, r.Unusual)
}

func TestEncode(t *testing.T) {
	r, err := Build(context.Background(), seededStatistics(t), 5000, time.Now())
	require.NoError(t, err)

	body, contentType, err := Encode(r, "json")
	require.NoError(t, err)
	assert.Equal(t, "application/json", contentType)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.EqualValues(t, 8100, decoded["global_total"])
	assert.Contains(t, decoded, "unusual_payment")

	body, contentType, err = Encode(r, "YAML")
	require.NoError(t, err)
	assert.Equal(t, "application/yaml", contentType)
	var fromYAML map[string]any
	require.NoError(t, yaml.Unmarshal(body, &fromYAML))
	assert.EqualValues(t, 2, fromYAML["total_agents"])

	_, _, err = Encode(r, "xml")
	assert.Error(t, err)
}

func TestObjectName(t *testing.T) {
	at := time.Date(2024, 6, 1, 8, 5, 9, 0, time.UTC)
	pattern := regexp.MustCompile(`^paydesk/reports/report-20240601T080509Z-[0-9a-f-]{36}\.yaml$`)
	assert.Regexp(t, pattern, ObjectName("/paydesk/reports/", at, "yml"))
	assert.Regexp(t, `^report-20240601T080509Z-[0-9a-f-]{36}\.json$`, ObjectName("", at, "json"))
}

func TestFileExporter(t *testing.T) {
	dir := t.TempDir()
	exp := NewFileExporter(dir)
	loc, err := exp.Export(context.Background(), "nested/report.json", []byte(`{}`), "application/json")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "nested", "report.json"), loc)
	content, err := os.ReadFile(loc)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(content))
}

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3Exporter(t *testing.T) {
	putter := &fakePutter{}
	exp := NewS3ExporterWithClient(putter, "reports-bucket")

	loc, err := exp.Export(context.Background(), "paydesk/r.json", []byte("{}"), "application/json")
	require.NoError(t, err)
	assert.Equal(t, "s3://reports-bucket/paydesk/r.json", loc)
	assert.Equal(t, "reports-bucket", *putter.input.Bucket)
	assert.Equal(t, "paydesk/r.json", *putter.input.Key)
	assert.Equal(t, "application/json", *putter.input.ContentType)
	assert.Equal(t, int64(2), *putter.input.ContentLength)
	assert.Equal(t, "{}", string(putter.body))

	putter.err = errors.New("access denied")
	_, err = exp.Export(context.Background(), "k", []byte("x"), "")
	assert.ErrorIs(t, err, putter.err)
}
