package logger

import (
	"time"
)

// ComponentRegistry collects what a serving deployment assembled at
// startup so it can be logged as one summary: infrastructure pieces,
// the pipeline's reader and stages, and the routes being served.
type ComponentRegistry struct {
	startTime      time.Time
	infrastructure []InfraComponent
	readers        []ReaderComponent
	stages         []StageComponent
	handlers       []HandlerComponent
}

// InfraComponent is an infrastructure dependency (server, cache, tracer).
type InfraComponent struct {
	Name    string
	Type    string
	Status  string // "active", "inactive", "error"
	Details string
}

// ReaderComponent is a pipeline source.
type ReaderComponent struct {
	Name   string
	Format string // wire format the source accepts
	Status string
}

// StageComponent is one processor in a pipeline chain.
type StageComponent struct {
	Name     string
	Position int
	Status   string // "configured", "initialized", "error"
}

// HandlerComponent is a served HTTP route.
type HandlerComponent struct {
	Method  string
	Path    string
	Handler string
}

// NewComponentRegistry creates an empty registry stamped with the
// startup time.
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{startTime: time.Now()}
}

// StartTime returns when startup began.
func (r *ComponentRegistry) StartTime() time.Time {
	return r.startTime
}

// RegisterInfrastructure records an infrastructure component.
func (r *ComponentRegistry) RegisterInfrastructure(name, componentType, status, details string) {
	r.infrastructure = append(r.infrastructure, InfraComponent{
		Name:    name,
		Type:    componentType,
		Status:  status,
		Details: details,
	})
}

// RegisterReader records the pipeline's source.
func (r *ComponentRegistry) RegisterReader(name, format, status string) {
	r.readers = append(r.readers, ReaderComponent{
		Name:   name,
		Format: format,
		Status: status,
	})
}

// RegisterStage records one pipeline stage.
func (r *ComponentRegistry) RegisterStage(name string, position int, status string) {
	r.stages = append(r.stages, StageComponent{
		Name:     name,
		Position: position,
		Status:   status,
	})
}

// RegisterHandler records a served route.
func (r *ComponentRegistry) RegisterHandler(method, path, handler string) {
	r.handlers = append(r.handlers, HandlerComponent{
		Method:  method,
		Path:    path,
		Handler: handler,
	})
}

// Infrastructure returns the registered infrastructure components.
func (r *ComponentRegistry) Infrastructure() []InfraComponent {
	return r.infrastructure
}

// Readers returns the registered pipeline sources.
func (r *ComponentRegistry) Readers() []ReaderComponent {
	return r.readers
}

// Stages returns the registered pipeline stages in chain order.
func (r *ComponentRegistry) Stages() []StageComponent {
	return r.stages
}

// Handlers returns the registered routes.
func (r *ComponentRegistry) Handlers() []HandlerComponent {
	return r.handlers
}

// LogSummary writes one line per registered component plus a closing
// line with the elapsed startup time.
func (r *ComponentRegistry) LogSummary(l *Logger) {
	for _, ic := range r.infrastructure {
		l.Info("startup: infrastructure", Fields(
			FieldComponent, ic.Name,
			"type", ic.Type,
			"status", ic.Status,
			"details", ic.Details,
		))
	}
	for _, rc := range r.readers {
		l.Info("startup: reader", Fields(
			FieldComponent, rc.Name,
			FieldFormat, rc.Format,
			"status", rc.Status,
		))
	}
	for _, sc := range r.stages {
		l.Info("startup: stage", Fields(
			FieldComponent, sc.Name,
			"position", sc.Position,
			"status", sc.Status,
		))
	}
	for _, hc := range r.handlers {
		l.Info("startup: route", Fields(
			"method", hc.Method,
			"path", hc.Path,
			"handler", hc.Handler,
		))
	}
	l.Info("startup complete", Fields(
		FieldDuration, time.Since(r.startTime).Milliseconds(),
	))
}
