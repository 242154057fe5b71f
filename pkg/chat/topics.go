package chat

// baseTopics are the suggested conversation starters shown to everyone.
var baseTopics = []string{
	"Math homework help",
	"Science concepts explained",
	"History essay research",
	"Language learning tips",
	"Coding tutorials",
	"Literature analysis",
	"Study techniques",
}

// topicCount is how many suggestions one response carries.
const topicCount = 5

// Topics returns suggested topics for a user. Authenticated users with a
// live conversation get a continuation suggestion in the first slot.
func (g *Gateway) Topics(userID string) []string {
	topics := make([]string, 0, topicCount)

	if userID != "" && len(g.sessions.ListByUser(userID)) > 0 {
		topics = append(topics, "Continue your last conversation")
	}

	for _, t := range baseTopics {
		if len(topics) == topicCount {
			break
		}
		topics = append(topics, t)
	}
	return topics
}
