package report

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"text/template"
	"time"

	"github.com/spf13/afero"

	"github.com/anchorworks/sprintflow/internal/application/service"
	"github.com/anchorworks/sprintflow/internal/domain/model"
	"github.com/anchorworks/sprintflow/internal/domain/repository"
	"github.com/anchorworks/sprintflow/internal/infrastructure/fileio"
)

const reportTemplate = `# Sprint Report: {{.SprintName}}

Project: {{.ProjectKey}}
Status: {{.SprintStatus}}
Generated: {{.GeneratedAt}}

## Summary

| Status | Count |
|--------|-------|
{{- range .StatusCounts}}
| {{.Status}} | {{.Count}} |
{{- end}}

## Tasks
{{range .Tasks}}
- [{{.Status}}] {{.Key}} {{.Title}}{{if .Assignee}} ({{.Assignee}}){{end}}
{{- end}}
{{if .Chains}}
## Split lineage
{{range .Chains}}
### {{.BaseTitle}} ({{.SprintCount}} sprints)
{{range .Nodes}}
{{- repeat .Depth}}- {{.Key}} {{.Title}} [{{.Status}}] ({{.Sprint}})
{{end}}
{{- end}}
{{- end}}`

// statusCount is one row of the report summary table
type statusCount struct {
	Status string
	Count  int
}

// reportTask is one task line of the report
type reportTask struct {
	Key      string
	Title    string
	Status   string
	Assignee string
}

// reportChain is one lineage section of the report
type reportChain struct {
	BaseTitle   string
	SprintCount int
	Nodes       []service.ChainNode
}

// reportData is the template payload
type reportData struct {
	SprintName   string
	SprintStatus string
	ProjectKey   string
	GeneratedAt  string
	StatusCounts []statusCount
	Tasks        []reportTask
	Chains       []reportChain
}

// ReportUseCaseImpl renders a markdown report for a sprint: a status
// rollup, the task list and the split lineage of every chained task.
type ReportUseCaseImpl struct {
	projectRepo repository.ProjectRepository
	sprintRepo  repository.SprintRepository
	taskRepo    repository.TaskRepository
	chainSvc    *service.ChainService
	fs          afero.Fs
	now         func() time.Time
}

// NewReportUseCaseImpl creates a new report use case implementation
func NewReportUseCaseImpl(
	projectRepo repository.ProjectRepository,
	sprintRepo repository.SprintRepository,
	taskRepo repository.TaskRepository,
	chainSvc *service.ChainService,
	fs afero.Fs,
) *ReportUseCaseImpl {
	return &ReportUseCaseImpl{
		projectRepo: projectRepo,
		sprintRepo:  sprintRepo,
		taskRepo:    taskRepo,
		chainSvc:    chainSvc,
		fs:          fs,
		now:         time.Now,
	}
}

// GenerateSprintReport renders the markdown report for a sprint
func (uc *ReportUseCaseImpl) GenerateSprintReport(ctx context.Context, sprintID string) (string, error) {
	id, err := model.NewSprintIDFromString(sprintID)
	if err != nil {
		return "", err
	}
	sp, err := uc.sprintRepo.Find(ctx, id)
	if err != nil {
		return "", err
	}
	proj, err := uc.projectRepo.Find(ctx, sp.ProjectID())
	if err != nil {
		return "", err
	}

	tasks, err := uc.taskRepo.ListByContainer(ctx, repository.NewSprintContainer(sp.ProjectID(), sp.ID()))
	if err != nil {
		return "", err
	}

	data := reportData{
		SprintName:   sp.Name(),
		SprintStatus: sp.Status().String(),
		ProjectKey:   proj.Key(),
		GeneratedAt:  uc.now().Format(time.RFC3339),
	}

	counts := map[string]int{}
	for _, t := range tasks {
		counts[t.Status().String()]++
		assignee := ""
		if t.Assignee() != nil {
			assignee = *t.Assignee()
		}
		data.Tasks = append(data.Tasks, reportTask{
			Key:      t.Key(),
			Title:    t.Title(),
			Status:   t.Status().String(),
			Assignee: assignee,
		})
	}
	for _, s := range []model.Status{
		model.StatusTodo, model.StatusInProgress, model.StatusReadyToTest,
		model.StatusBlocked, model.StatusDone, model.StatusLive,
	} {
		if counts[s.String()] > 0 {
			data.StatusCounts = append(data.StatusCounts, statusCount{Status: s.String(), Count: counts[s.String()]})
		}
	}

	// One lineage section per chain; tasks of the same chain share a root.
	seenRoots := map[string]bool{}
	for _, t := range tasks {
		if t.SplitFromID() == nil {
			continue
		}
		root, err := uc.chainSvc.FindRoot(ctx, t.ID())
		if err != nil {
			return "", err
		}
		if seenRoots[root.ID().String()] {
			continue
		}
		seenRoots[root.ID().String()] = true

		chain, err := uc.chainSvc.MaterializeChain(ctx, root.ID())
		if err != nil {
			return "", err
		}
		data.Chains = append(data.Chains, reportChain{
			BaseTitle:   service.BaseTitle(root.Title()),
			SprintCount: chain.SprintCount,
			Nodes:       chain.Nodes,
		})
	}

	tmpl, err := template.New("sprint_report").Funcs(template.FuncMap{
		"repeat": func(depth int) string {
			indent := ""
			for i := 0; i < depth; i++ {
				indent += "  "
			}
			return indent
		},
	}).Parse(reportTemplate)
	if err != nil {
		return "", fmt.Errorf("parse report template failed: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render report failed: %w", err)
	}
	return buf.String(), nil
}

// ExportSprintReport renders the report and writes it atomically under dir
func (uc *ReportUseCaseImpl) ExportSprintReport(ctx context.Context, sprintID, dir string) (string, error) {
	content, err := uc.GenerateSprintReport(ctx, sprintID)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, fmt.Sprintf("sprint-%s-%s.md", sprintID, uc.now().Format("20060102")))
	if err := fileio.WriteFileAtomic(uc.fs, path, []byte(content)); err != nil {
		return "", err
	}
	return path, nil
}
