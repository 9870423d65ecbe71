package scoring

// QuestionType distinguishes how an answer value is interpreted.
type QuestionType string

const (
	TypeYesNo  QuestionType = "YesNo"
	TypeText   QuestionType = "Text"
	TypeSelect QuestionType = "Select" // 1-5 star rating
)

// Question is a questionnaire item as authored by the admin UI. The scoring
// core consumes questions as plain data; persistence of the catalog lives
// elsewhere.
type Question struct {
	ID       string       `json:"id"`
	Text     string       `json:"text"`
	Category string       `json:"category"`
	Weight   float64      `json:"weight"`
	Type     QuestionType `json:"type"`
	Enabled  bool         `json:"enabled"`

	// IsKnockOut marks a question whose failing answer forces automatic
	// rejection regardless of the numeric score. KnockOutAnswer is the
	// failing answer value ("No" unless stated otherwise).
	IsKnockOut     bool   `json:"isKnockOut"`
	KnockOutAnswer string `json:"knockOutAnswer,omitempty"`

	// Keywords drive credit for free-text answers: any case-insensitive
	// substring match earns full credit.
	Keywords []string `json:"keywords,omitempty"`
}

// AnswerValue is "Yes"/"No"/"NA", a star rating "1".."5", or free text.
type AnswerValue string

// Answers maps question IDs to submitted values. Missing IDs are treated as
// unanswered and excluded from score denominators.
type Answers map[string]AnswerValue

// Status is the three-way scoring verdict before admin rules run.
type Status string

const (
	StatusApproved    Status = "Approved"
	StatusConditional Status = "Conditional"
	StatusRejected    Status = "Rejected"
)

// Classification labels surfaced on reports.
const (
	ClassSobresaliente = "Sobresaliente"
	ClassAprobado      = "Aprobado"
	ClassCondicional   = "Aprobado condicional"
	ClassNoAprobado    = "No Aprobado"
	ClassBloqueCritico = "No Aprobado (Bloque critico)"
)

// Result is the output of the calculator. It is a pure function of the
// inputs: identical answers, questions, and config always produce an
// identical Result.
type Result struct {
	Score          int                `json:"score"`
	Status         Status             `json:"status"`
	Classification string             `json:"classification"`
	CategoryScores map[string]float64 `json:"categoryScores"`

	// KnockOutReason is set whenever a gate forced the rejection: a failed
	// knock-out question, a group below its minimum, or too many critical
	// failures.
	KnockOutReason string `json:"knockOutReason,omitempty"`
}
