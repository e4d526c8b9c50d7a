package question

// Static question pools, keyed by session type and stage. These back the
// StaticProvider and serve as the fallback when the LLM is unreachable.

const GenericFallback = "Tell me about a recent project or accomplishment you are proud of, and what your specific contribution was."

var behavioralPool = map[Stage][]string{
	StageOpening: {
		"To start, walk me through your background and what led you to apply for this role.",
		"Tell me a little about yourself and what you are looking for in your next position.",
	},
	StageCore: {
		"Describe a time you had a conflict with a teammate. How did you resolve it?",
		"Tell me about a time you missed a deadline. What happened and what did you change afterwards?",
		"Give me an example of a situation where you had to influence someone without authority.",
		"Describe a situation where you received difficult feedback. How did you respond?",
		"Tell me about a time you had to make a decision with incomplete information.",
		"Describe the most ambiguous project you have worked on. How did you bring structure to it?",
		"Tell me about a time you disagreed with your manager. What did you do?",
		"Give me an example of a goal you set for yourself and how you achieved it.",
	},
	StageClosing: {
		"Looking back at everything we discussed, why do you think you are a strong fit for this role?",
		"Before we wrap up, is there anything about your experience we have not covered that you want to highlight?",
	},
}

var technicalPool = map[Stage][]string{
	StageOpening: {
		"To get us started, walk me through your technical background and the stack you are most comfortable with.",
		"Tell me about the most technically interesting system you have worked on recently.",
	},
	StageCore: {
		"How would you design a rate limiter for a public API? Walk me through the trade-offs.",
		"Explain the difference between optimistic and pessimistic locking, and when you would use each.",
		"Describe how you would debug a service whose p99 latency suddenly doubled in production.",
		"How do you decide between a SQL and a NoSQL store for a new feature?",
		"Walk me through how you would design the data model for a chat application.",
		"What does idempotency mean in the context of APIs, and how do you implement it?",
		"Explain how you would approach testing a component with many external dependencies.",
		"Describe a caching strategy you have used and the invalidation problems it introduced.",
	},
	StageClosing: {
		"Given everything we discussed, what part of your technical skill set do you think needs the most growth?",
		"As a final question, how would you ramp up on an unfamiliar codebase in your first month?",
	},
}

var caseStudyPool = map[Stage][]string{
	StageOpening: {
		"Let's begin with a warm-up: estimate how many coffee shops operate in a large metropolitan city, and explain your approach.",
		"To start, walk me through how you generally structure an unfamiliar business problem.",
	},
	StageCore: {
		"Our client, a retail chain, has seen profits decline 15% over two years while revenue stayed flat. How would you investigate?",
		"A subscription product has rising signups but falling retention. What hypotheses would you test first?",
		"You are asked whether a logistics company should insource its delivery fleet. Structure the analysis.",
		"A competitor just cut prices by 20%. Lay out the options and how you would evaluate them.",
		"How would you size the market for electric scooters in a mid-size European city?",
		"A hospital wants to reduce emergency room waiting times. Where do you start?",
	},
	StageClosing: {
		"To close: synthesize the strongest recommendation you made today into a one-minute summary for the client CEO.",
		"As a final exercise, what is the biggest risk in the recommendations you gave today and how would you mitigate it?",
	},
}

func poolFor(sessionType string) map[Stage][]string {
	switch sessionType {
	case "technical":
		return technicalPool
	case "case_study":
		return caseStudyPool
	default:
		return behavioralPool
	}
}

// pick returns the first question in the stage pool not already asked.
// An exhausted pool yields the generic fallback rather than an error.
func pick(sessionType string, stage Stage, history []Exchange) string {
	asked := make(map[string]bool, len(history))
	for _, h := range history {
		asked[h.Question] = true
	}
	for _, q := range poolFor(sessionType)[stage] {
		if !asked[q] {
			return q
		}
	}
	return GenericFallback
}
