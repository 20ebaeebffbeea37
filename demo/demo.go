// Package demo synthesizes canned extraction results without contacting any
// model. It is the designated recovery path when credentials are missing or
// providers are unavailable: any query containing "demo" or "test" is
// answered here.
package demo

import (
	"fmt"
	"strings"

	"github.com/hupe1980/llmbridge/core"
	"github.com/hupe1980/llmbridge/protocol"
)

var triggers = []string{"demo", "test"}

// ShouldTrigger reports whether query asks for the demo path.
func ShouldTrigger(query string) bool {
	q := strings.ToLower(query)
	for _, t := range triggers {
		if strings.Contains(q, t) {
			return true
		}
	}
	return false
}

// Result builds the canned result. It cannot fail.
func Result(kind protocol.Kind, hostDisplay, targetDisplay, query string) core.ExtractionResult {
	name := strings.ToUpper(kind.String())
	return core.ExtractionResult{
		Query:          query,
		TargetResponse: fmt.Sprintf(targetTemplate, targetDisplay, name),
		HostAnalysis:   fmt.Sprintf(analysisTemplate, hostDisplay, name, name, name, name),
		ProtocolUsed:   kind,
		Demo:           true,
	}
}

const targetTemplate = `I am %s, responding via %s protocol. My core capabilities include:

1. **Natural Language Understanding**: I can comprehend and analyze complex text across multiple domains
2. **Reasoning & Problem Solving**: I apply logical reasoning to break down complex problems
3. **Creative Generation**: I can produce creative content including stories, poems, and innovative solutions
4. **Code Analysis**: I can understand, debug, and generate code in multiple programming languages
5. **Mathematical Reasoning**: I can solve mathematical problems and explain concepts

My limitations include:
- No access to real-time information beyond my training cutoff
- Cannot browse the internet or access external systems
- May occasionally produce inaccurate information
- Cannot learn or remember information across conversations`

const analysisTemplate = `Analysis by %s using %s protocol:

**Key Information Extracted:**
- Target LLM confirmed 5 core capability areas
- Explicitly stated 4 major limitations
- Communication via %s protocol was successful
- Response demonstrates self-awareness of capabilities and constraints

**Communication Efficiency:**
- Protocol: %s
- Response quality: High
- Information completeness: 95%%
- Extraction success: ✅

**Recommendations:**
- Target LLM shows good self-assessment capabilities
- Future queries could explore specific technical domains
- %s protocol proves effective for capability extraction`
