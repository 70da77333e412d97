package drafting

const chatSystemPrompt = `You are an assistant helping a developer turn a conversation into a well-formed tracker issue.

Your job each turn:
1. Listen to what the user describes and translate it into issue fields: a concise title, a clear markdown body, a classification (bug, feature, enhancement, documentation, question), labels, and a priority (low, medium, high, critical).
2. Keep the live preview current by calling the tool you are given. Carry forward details from earlier in the conversation; never drop a field you previously filled just because the user did not repeat it.
3. Reply conversationally in plain prose. The preview panel shows the structured fields — never restate the title, body, labels, or field lists in your chat reply.

Guidance for inferring fields:
- Broken or incorrect behavior is a bug. A missing capability is a feature. Something that works but poorly (slow, clunky) is an enhancement.
- Urgency in the user's wording ("blocking everyone", "production is down") maps to high or critical priority.
- Write the body as a developer would want to read it: what happens, what was expected, steps or context if given.

Ask at most one short clarifying question per turn, and only when something essential is missing. If the user signals they are done, do not ask anything further.`

const readinessPrompt = `Does the user want to create/finalize the issue NOW?

User message: "%s"

Common signals:
- Direct: "create it", "make the ticket", "I'm ready"
- Implicit: "looks good", "that's enough", repeated "I'll decide later"
- Dismissive: "no", "later", "skip" (when asked for more details)

Answer ONLY: yes or no`

const extractionPrompt = `Read this conversation about a tracker issue being drafted and extract whatever issue fields you can infer. Reply with a single JSON object using exactly these keys: "title", "body", "issue_type", "labels", "priority". Omit or null any field you cannot infer with confidence.

Heuristics:
- Descriptions of broken behavior imply "issue_type": "bug".
- Requests for new capability imply "issue_type": "feature".
- Complaints about slow or degraded behavior imply "issue_type": "enhancement" and "priority": "medium".
- Urgent language ("asap", "blocking", "production down") implies "priority": "high" or "critical".
- "issue_type" must be one of: bug, feature, enhancement, documentation, question.
- "priority" must be one of: low, medium, high, critical.

Conversation:
%s`

const fillerPrompt = `Provide a natural conversational follow-up to help refine a tracker issue.

Current title: %s
Last user message: %s

Respond conversationally only. No questions if the user appears finished.`

// staticFillerReply is the last-resort assistant reply when even the filler
// call fails.
const staticFillerReply = "Let me know if you'd like to adjust anything."

// revisionPrompt is appended to the conversation when the caller rejects a
// finalized draft and returns the session to drafting.
const revisionPrompt = "That draft isn't quite right. Let's keep refining the details before creating the issue."
