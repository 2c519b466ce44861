package scoutpod

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Session holds one conversation turn: it owns the in/out channels, retrieves
// memory before the run, accumulates usage, and optionally persists the
// exchange through a Storage.
type Session struct {
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	inUserChannel  chan string
	outUserChannel chan Response

	llm     LLM
	memory  Memory
	agent   *Agent
	storage Storage
	usage   *Usage

	logger *slog.Logger
}

// NewSession constructs a session with references to shared LLM, memory and
// agent, but isolated conversation state. The session starts listening
// immediately; feed it with In and drain it with Out.
func NewSession(ctx context.Context, llm LLM, mem Memory, ag *Agent) *Session {
	sessionID, err := gonanoid.New()
	if err != nil {
		panic(err)
	}
	ctx, cancel := context.WithCancel(ctx)
	ctx = context.WithValue(ctx, ContextKey("sessionID"), sessionID)
	s := &Session{
		ctx:       ctx,
		cancel:    cancel,
		closeOnce: sync.Once{},

		inUserChannel:  make(chan string),
		outUserChannel: make(chan Response),

		llm:    llm,
		memory: mem,
		agent:  ag,
		usage:  &Usage{},

		logger: slog.Default(),
	}
	go s.run()
	return s
}

func (s *Session) ID() string {
	return s.ctx.Value(ContextKey("sessionID")).(string)
}

// CustomerID returns the customer identifier carried on the context, if any.
func (s *Session) CustomerID() string {
	if id, ok := s.ctx.Value(ContextKey("customerID")).(string); ok {
		return id
	}
	return ""
}

// AttachStorage enables conversation persistence. Call before In.
func (s *Session) AttachStorage(storage Storage) {
	s.storage = storage
}

// In submits the user message. A session processes a single message; In
// returns ErrSessionClosed once the session has been closed or finished.
func (s *Session) In(userMessage string) error {
	select {
	case s.inUserChannel <- userMessage:
		return nil
	case <-s.ctx.Done():
		return ErrSessionClosed
	}
}

// Out blocks until the next streamed response is available. It returns
// ErrSessionClosed when the session ends without another response.
func (s *Session) Out() (Response, error) {
	response, ok := <-s.outUserChannel
	if !ok {
		return Response{}, ErrSessionClosed
	}
	return response, nil
}

// Close ends the session lifecycle. Safe to call at any point, including
// before In; the run goroutine observes the cancellation and shuts down.
func (s *Session) Close() {
	s.closeOnce.Do(s.cancel)
}

// send delivers a response unless the session has been closed.
func (s *Session) send(response Response) bool {
	select {
	case s.outUserChannel <- response:
		return true
	case <-s.ctx.Done():
		return false
	}
}

// run waits for the user message, launches the agent, and forwards the
// agent's stream to the caller. run is the only sender on outUserChannel and
// the only place that closes it. The input channel stays a channel so an
// interactive mode can be added without changing the session contract.
func (s *Session) run() {
	s.logger.Info("Session started", "sessionID", s.ID())
	defer s.cancel()
	defer close(s.outUserChannel)

	select {
	case <-s.ctx.Done():
		return
	case userMessage := <-s.inUserChannel:
		if s.storage != nil {
			if err := s.storage.CreateConversation(s.ctx, s.ID(), s.CustomerID(), userMessage); err != nil {
				s.logger.Error("Error persisting conversation", "error", err)
			}
		}

		messageHistory := NewMessageList(UserMessage(userMessage))

		memoryBlock, err := s.memory.Retrieve(s.ctx)
		if err != nil {
			s.logger.Error("Error retrieving memory", "error", err)
			s.send(Response{Content: err.Error(), Type: ResponseTypeError})
			return
		}

		internalChannel := make(chan Response)
		go s.agent.Run(s.ctx, s.llm, messageHistory, memoryBlock, s.usage, internalChannel)

		var finalAnswer strings.Builder
		for response := range internalChannel {
			if response.Type == ResponseTypePartialText {
				finalAnswer.WriteString(response.Content)
			}
			if !s.send(response) {
				// Closed mid-run; keep draining so the agent goroutine can
				// observe the cancellation and exit.
				for range internalChannel {
				}
				return
			}
			if response.Type == ResponseTypeError {
				return
			}
		}

		if s.storage != nil && finalAnswer.Len() > 0 {
			if err := s.storage.FinishConversation(s.ctx, s.ID(), finalAnswer.String()); err != nil {
				s.logger.Error("Error persisting assistant message", "error", err)
			}
		}

		s.send(Response{Type: ResponseTypeEnd})
	}
}
