// File path: internal/orchestrator/synthesize.go

package orchestrator

import (
	"context"
	"fmt"

	"github.com/harborcover/commsight/internal/common"
	"github.com/harborcover/commsight/internal/common/telemetry"
	"github.com/harborcover/commsight/internal/llm"
)

const synthesisPrompt = `You are synthesizing responses from multiple data sources for Harper Insurance.

**SQL Database Results:**
%s

**Document Search Results:**
%s

Create a unified, coherent response that answers the user's question completely. Correlate and compare the two sources; do not concatenate them verbatim.`

const noResponsesReply = "I apologize, but I couldn't retrieve any information to answer your question."

// synthesize combines the branch responses into the final answer. A single
// response passes through untouched; two responses go through one completion
// call that unifies them, with a deterministic labeled concatenation when the
// call fails. The returned error text is non-empty only when there was
// nothing to combine.
func (o *Orchestrator) synthesize(ctx context.Context, question string, responses []AgentResponse) (string, string) {
	logger := common.Logger()

	if len(responses) == 0 {
		logger.Warn("orchestrator: no agent responses to synthesize")
		return noResponsesReply, "No agent responses received"
	}
	if len(responses) == 1 {
		return responses[0].Content, ""
	}

	sqlContent := "No SQL results available."
	docContent := "No document results available."
	for _, r := range responses {
		switch r.AgentName {
		case agentSQL:
			sqlContent = r.Content
		case agentDocument:
			docContent = r.Content
		}
	}

	answer, err := o.provider.Complete(ctx, llm.Request{
		System:      fmt.Sprintf(synthesisPrompt, sqlContent, docContent),
		User:        fmt.Sprintf("Original question: %s\n\nSynthesize the responses above into a single coherent answer.", question),
		Temperature: o.cfg.SynthesisTemperature,
	})
	if err != nil {
		telemetry.RecordSynthesisFallback()
		logger.Warn("orchestrator: synthesis failed, concatenating responses", "error", err)
		return fmt.Sprintf("**From Database:**\n%s\n\n**From Documents:**\n%s", sqlContent, docContent), ""
	}
	return answer, ""
}
