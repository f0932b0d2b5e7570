package interview

// Role identifies one of the two fixed AI participants.
type Role string

const (
	RoleInterviewer Role = "interviewer"
	RoleCandidate   Role = "candidate"
)

// Other returns the opposite role.
func (r Role) Other() Role {
	if r == RoleInterviewer {
		return RoleCandidate
	}
	return RoleInterviewer
}

// Valid reports whether r is one of the two known roles.
func (r Role) Valid() bool {
	return r == RoleInterviewer || r == RoleCandidate
}

// RoleConfig is the fixed provider configuration for one role. It never
// changes after session start.
type RoleConfig struct {
	Name         string
	Voice        string
	Instructions string
}

const interviewerInstructions = `You are Sarah, an HR interviewer hiring warehouse associates.
Run a spoken job interview with the candidate, one question at a time, and keep
each question short. Over the course of the interview you must cover all of:
prior work experience, motivation for applying, language ability, shift and
weekend availability, physical stamina for standing and lifting, and visa
status with earliest start date. React to the candidate's answers naturally and
ask follow-ups where an answer is thin. When every topic has been covered and
you are satisfied, thank the candidate and include the exact token
` + ClosingMarker + ` in your closing sentence.`

const candidateInstructions = `You are Alex, applying for a part-time warehouse associate
position. Answer the interviewer's questions in a spoken, conversational way:
a couple of sentences, no lists. You have one year of supermarket stocking
experience, you can work evenings and weekends, you speak conversational
English, you are in good shape, you hold a valid work permit and could start
within two weeks. Stay in character and never interview the interviewer.`

// DefaultRoleConfigs returns the built-in interviewer and candidate personas.
func DefaultRoleConfigs(interviewerVoice, candidateVoice string) map[Role]RoleConfig {
	if interviewerVoice == "" {
		interviewerVoice = "coral"
	}
	if candidateVoice == "" {
		candidateVoice = "verse"
	}
	return map[Role]RoleConfig{
		RoleInterviewer: {Name: "Sarah", Voice: interviewerVoice, Instructions: interviewerInstructions},
		RoleCandidate:   {Name: "Alex", Voice: candidateVoice, Instructions: candidateInstructions},
	}
}
