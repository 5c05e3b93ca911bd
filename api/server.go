package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/joomcode/errorx"
	"github.com/krehermann/stackvm/core"
	"github.com/krehermann/stackvm/types"
	"github.com/krehermann/stackvm/vm"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type ServerConfig struct {
	ListenerAddr string
	Logger       *zap.Logger
	// MaxSteps bounds every run; zero means unbounded.
	MaxSteps        int
	MaxProgramBytes int64
}

type Server struct {
	ServerConfig
	programs core.Storager[types.Hash, *core.Program]
	hasher   core.Hasher[*core.Program]

	echo   *echo.Echo
	logger *zap.Logger
}

func NewServer(config ServerConfig, programs core.Storager[types.Hash, *core.Program]) (*Server, error) {
	if config.Logger == nil {
		config.Logger, _ = zap.NewDevelopment()
	}
	if config.MaxProgramBytes <= 0 {
		return nil, fmt.Errorf("max program bytes must be positive. got %d", config.MaxProgramBytes)
	}
	if programs == nil {
		programs = core.NewGenericMemStore[types.Hash, *core.Program]()
	}
	s := &Server{
		ServerConfig: config,
		programs:     programs,
		hasher:       core.DefaultProgramHasher{},
		logger:       config.Logger.Named("api"),
	}

	echoer := echo.New()
	echoer.HideBanner = true
	echoer.POST("/decode", s.handleDecode)
	echoer.GET("/program/:hash", s.handleGetProgram)
	echoer.POST("/run", s.handleRun)
	echoer.GET("/run/stream", s.handleRunStream)
	s.echo = echoer

	return s, nil
}

func (s *Server) Start() error {
	s.logger.Info("api server starting",
		zap.String("addr", s.ListenerAddr),
		zap.Int("max steps", s.MaxSteps))

	err := s.echo.Start(s.ListenerAddr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the routes, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

type programResponse struct {
	Hash         types.Hash `json:"hash"`
	Canonical    string     `json:"canonical"`
	Instructions []string   `json:"instructions"`
}

func newProgramResponse(p *core.Program, h types.Hash) programResponse {
	insts := make([]string, len(p.Instructions))
	for i, inst := range p.Instructions {
		insts[i] = inst.String()
	}
	return programResponse{
		Hash:         h,
		Canonical:    string(p.Canonical()),
		Instructions: insts,
	}
}

type faultResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	IP      int    `json:"ip"`
}

// runResponse reports one execution. Truncated is set when the output
// did not fit the buffer.
type runResponse struct {
	ID        string         `json:"id"`
	Hash      types.Hash     `json:"hash"`
	Output    string         `json:"output"`
	Truncated bool           `json:"truncated,omitempty"`
	Steps     int            `json:"steps"`
	State     vm.Snapshot    `json:"state"`
	Fault     *faultResponse `json:"fault,omitempty"`
}

func errorJSON(ectx echo.Context, status int, err error) error {
	return ectx.JSON(status,
		map[string]any{
			"error": err.Error(),
		})
}

// readProgram decodes the request body and caches the result by hash.
func (s *Server) readProgram(ectx echo.Context) (*core.Program, types.Hash, int, error) {
	body := http.MaxBytesReader(ectx.Response(), ectx.Request().Body, s.MaxProgramBytes)
	src, err := io.ReadAll(body)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, types.Hash{}, http.StatusRequestEntityTooLarge, err
		}
		return nil, types.Hash{}, http.StatusBadRequest, err
	}

	return s.storeProgram(src)
}

func (s *Server) storeProgram(src []byte) (*core.Program, types.Hash, int, error) {
	p := core.NewProgram(src)
	h := p.Hash(s.hasher)
	if err := s.programs.Put(h, p); err != nil {
		return nil, h, http.StatusInternalServerError, err
	}
	s.logger.Debug("program stored",
		zap.Stringer("hash", h),
		zap.Int("instructions", p.Len()))
	return p, h, http.StatusOK, nil
}

func (s *Server) handleDecode(ectx echo.Context) error {
	p, h, status, err := s.readProgram(ectx)
	if err != nil {
		return errorJSON(ectx, status, err)
	}
	return ectx.JSON(http.StatusOK, newProgramResponse(p, h))
}

func (s *Server) handleGetProgram(ectx echo.Context) error {
	h, err := types.HashFromHex(ectx.Param("hash"))
	if err != nil {
		return errorJSON(ectx, http.StatusBadRequest, err)
	}

	p, err := s.programs.Get(h)
	if err != nil {
		return errorJSON(ectx, http.StatusNotFound, err)
	}
	return ectx.JSON(http.StatusOK, newProgramResponse(p, h))
}

func (s *Server) handleRun(ectx echo.Context) error {
	p, h, status, err := s.readProgram(ectx)
	if err != nil {
		return errorJSON(ectx, status, err)
	}

	out := &limitedBuffer{max: int(s.MaxProgramBytes)}
	resp, err := s.execute(p, h, out)
	if err != nil {
		return errorJSON(ectx, http.StatusInternalServerError, err)
	}
	resp.Output = out.String()
	resp.Truncated = out.truncated

	status = http.StatusOK
	if resp.Fault != nil {
		status = http.StatusUnprocessableEntity
	}
	return ectx.JSON(status, resp)
}

// execute runs p with out as the character sink. Faults are reported in
// the response; only unexpected errors are returned.
func (s *Server) execute(p *core.Program, h types.Hash, out io.Writer) (*runResponse, error) {
	id := uuid.NewString()
	logger := s.logger.With(zap.String("run", id), zap.Stringer("hash", h))

	machine := vm.NewVM(p.Instructions,
		vm.LoggerOpt(logger),
		vm.OutputOpt(out),
		vm.MaxStepsOpt(s.MaxSteps),
	)
	err := machine.Run()

	resp := &runResponse{
		ID:    id,
		Hash:  h,
		Steps: machine.Steps(),
		State: machine.Snapshot(),
	}
	switch {
	case err == nil:
	case vm.IsFault(err), vm.IsStepLimit(err):
		ip, _ := vm.FaultIP(err)
		resp.Fault = &faultResponse{
			Type:    errorx.GetTypeName(err),
			Message: errorx.Cast(err).Message(),
			IP:      ip,
		}
	default:
		logger.Error("run failed", zap.Error(err))
		return nil, err
	}

	logger.Info("run finished",
		zap.Int("steps", resp.Steps),
		zap.Bool("fault", resp.Fault != nil))
	return resp, nil
}
