package crew

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/BaSui01/boardroom/prompt"
	"github.com/BaSui01/boardroom/types"
)

// DefaultManagerBackend is the deployment-policy model backing the crew's
// coordinating role. It is deliberately not derived from any member persona.
const DefaultManagerBackend = "openai/gpt-4.1"

// DefaultOutputCharLimit caps the length of a crew-produced answer
// regardless of how verbose the underlying models are.
const DefaultOutputCharLimit = 900

// Config tunes crew assembly.
type Config struct {
	ManagerBackend  string `yaml:"manager_backend" json:"manager_backend"`
	OutputCharLimit int    `yaml:"output_char_limit" json:"output_char_limit"`
	Verbose         bool   `yaml:"verbose" json:"verbose"`
}

// DefaultConfig returns the stock assembly configuration.
func DefaultConfig() Config {
	return Config{
		ManagerBackend:  DefaultManagerBackend,
		OutputCharLimit: DefaultOutputCharLimit,
		Verbose:         true,
	}
}

// Assembler builds crews and tasks from meeting state.
type Assembler struct {
	cfg    Config
	logger *zap.Logger
}

// NewAssembler creates an Assembler.
func NewAssembler(cfg Config, logger *zap.Logger) *Assembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ManagerBackend == "" {
		cfg.ManagerBackend = DefaultManagerBackend
	}
	if cfg.OutputCharLimit <= 0 {
		cfg.OutputCharLimit = DefaultOutputCharLimit
	}
	return &Assembler{
		cfg:    cfg,
		logger: logger.With(zap.String("component", "crew_assembler")),
	}
}

// Assemble builds a hierarchical crew with one agent per active persona.
// Every persona must carry a provider and a model; the first one that does
// not fails the whole assembly before any agent is built.
func (a *Assembler) Assemble(personas []types.Persona) (*Crew, error) {
	agents := make([]Agent, 0, len(personas))
	for _, p := range personas {
		if !p.Active {
			continue
		}
		if !p.HasBackend() {
			return nil, types.Configuration(
				fmt.Sprintf("persona %q must have a valid LLM provider and model", p.Name))
		}
		agents = append(agents, Agent{
			Role:            p.Role,
			Goal:            fmt.Sprintf("Assist with tasks related to %s", p.Role),
			Backstory:       prompt.Backstory(p),
			Backend:         p.BackendRef(),
			AllowDelegation: true,
		})
	}

	c := &Crew{
		ID:             generateCrewID(),
		Agents:         agents,
		Tasks:          make([]Task, 0, 1),
		Process:        ProcessHierarchical,
		ManagerBackend: a.cfg.ManagerBackend,
		Verbose:        a.cfg.Verbose,
	}

	a.logger.Info("assembled crew",
		zap.String("crew", c.ID),
		zap.Int("agents", len(agents)),
		zap.String("manager_backend", c.ManagerBackend),
	)
	return c, nil
}

// BuildTask turns a meeting's framing plus the newly received message into
// one unit of work. Both arguments are required.
func (a *Assembler) BuildTask(meeting *types.Meeting, newMessage *types.Message) (Task, error) {
	if meeting == nil || newMessage == nil {
		return Task{}, types.PreconditionFailed("meeting and message must be provided to create a task")
	}
	return Task{
		Description: meeting.Description,
		ExpectedOutput: fmt.Sprintf("%s\nLimit the result to %d characters.",
			newMessage.Content, a.cfg.OutputCharLimit),
		Markdown: true,
	}, nil
}
