package dalil

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dalilchat/dalil/llm"
	"github.com/dalilchat/dalil/memory"
	"github.com/dalilchat/dalil/normalize"
	"github.com/dalilchat/dalil/retrieval"
	"github.com/dalilchat/dalil/router"
)

// Query answers one user turn. Routing picks the cheapest capable path:
// greetings and arithmetic are answered without any model call, short
// factual questions go straight to the generator, and everything else
// runs the full retrieval pipeline.
func (e *engine) Query(ctx context.Context, sessionID, text string, opts ...QueryOption) (*QueryResult, error) {
	start := time.Now()
	o := applyQueryOptions(opts)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	res := &QueryResult{SessionID: sessionID}

	// Input that normalizes to nothing gets a canned reply and leaves no
	// trace in memory.
	if normalize.Normalize(text) == "" {
		res.Answer = emptyInputReply
		res.QueryType = string(router.TypeSimple)
		res.ProcessingTimeMS = time.Since(start).Milliseconds()
		return res, nil
	}

	queryType := e.router.Classify(text)
	res.QueryType = string(queryType)

	var err error
	switch queryType {
	case router.TypeGreeting:
		res.Answer = greetingReply
	case router.TypeCalculator:
		res.Answer = e.answerCalculator(text)
	case router.TypeSimple:
		res.Answer, err = e.answerSimple(ctx, sessionID, text)
	default:
		if o.withoutRAG {
			// Caller opted out of retrieval; answer like a simple turn.
			res.Answer, err = e.answerSimple(ctx, sessionID, text)
			break
		}
		err = e.answerRAG(ctx, sessionID, text, res)
	}
	if err != nil {
		return nil, err
	}

	e.remember(ctx, sessionID, text, res.Answer)
	res.ProcessingTimeMS = time.Since(start).Milliseconds()
	return res, nil
}

func (e *engine) answerCalculator(text string) string {
	expr, ok := e.router.Expression(text)
	if !ok {
		return calcErrorReply
	}
	v, err := router.Evaluate(expr)
	if err != nil {
		e.log.Debug("calculator evaluation failed", "expression", expr, "error", err)
		return calcErrorReply
	}
	return calcAnswer(expr, router.FormatResult(v))
}

// answerSimple generates directly from conversation history, skipping
// retrieval.
func (e *engine) answerSimple(ctx context.Context, sessionID, text string) (string, error) {
	messages := e.promptWithHistory(ctx, sessionID, text)

	gctx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()
	answer, err := e.generator.Generate(gctx, messages)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	return strings.TrimSpace(answer), nil
}

// answerRAG runs two-stage retrieval and generates from the retrieved
// passages. An empty collection still reaches the generator, which
// answers from general knowledge.
func (e *engine) answerRAG(ctx context.Context, sessionID, text string, res *QueryResult) error {
	search, err := e.retriever.Search(ctx, text, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	res.Reranked = search.Reranked
	res.Sources = toSources(search.Results)

	messages := e.promptWithHistory(ctx, sessionID, ragUserPrompt(contextBlock(search.Results), text))

	gctx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()
	answer, err := e.generator.Generate(gctx, messages)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	res.Answer = strings.TrimSpace(answer)
	return nil
}

// promptWithHistory builds the message list: system prompt, recent
// turns, then the current user message. History failures degrade to a
// history-free prompt.
func (e *engine) promptWithHistory(ctx context.Context, sessionID, userMessage string) []llm.Message {
	messages := []llm.Message{{Role: "system", Content: systemPrompt}}

	history, err := e.memory.History(ctx, sessionID, 0)
	if err != nil {
		e.log.Warn("loading history failed, answering without it", "session_id", sessionID, "error", err)
	} else {
		for _, m := range history {
			messages = append(messages, llm.Message{Role: m.Role, Content: m.Content})
		}
	}

	return append(messages, llm.Message{Role: "user", Content: userMessage})
}

// remember stores the turn with the user's original wording. Memory
// failures never fail a query that already has an answer.
func (e *engine) remember(ctx context.Context, sessionID, userText, answer string) {
	now := time.Now()
	turns := []memory.Message{
		{SessionID: sessionID, Role: memory.RoleUser, Content: userText, Timestamp: now},
		{SessionID: sessionID, Role: memory.RoleAssistant, Content: answer, Timestamp: now.Add(time.Millisecond)},
	}
	for _, t := range turns {
		if err := e.memory.Append(ctx, t); err != nil {
			e.log.Warn("storing conversation turn failed", "session_id", sessionID, "role", t.Role, "error", err)
			return
		}
	}
}

func toSources(results []retrieval.Result) []Source {
	if len(results) == 0 {
		return nil
	}
	out := make([]Source, len(results))
	for i, r := range results {
		out[i] = Source{Content: r.Content, Score: r.Score, Metadata: r.Metadata}
	}
	return out
}
