package oracleworker

// User-facing moderation responses. The wording stays in the oracle's
// voice: the block itself is a first-class reply, not an error page.

var violationResponses = map[ViolationType]string{
	ViolationSelfHarm: "I hear that you're going through something difficult, and I want you to know that your wellbeing matters deeply. While I can offer spiritual guidance, what you're experiencing needs immediate, professional support.",

	ViolationHarmOthers: "I cannot provide guidance on harming others. Tarot and astrology are tools for understanding ourselves and making positive choices. If you're experiencing conflict or anger, I encourage you to seek support from a counselor who can help you process these feelings in healthy ways.",

	ViolationSexualContent: "I appreciate your trust, but I'm not able to discuss sexual or adult content. I'm here to provide spiritual guidance through tarot, astrology, and crystal wisdom. Let's refocus on a topic I can truly help with—perhaps a question about your life path, relationships, career, or personal growth.",

	ViolationAbusiveLanguage: "I appreciate you being here, but I'm not able to engage with abusive or profane language. This space is meant to be respectful and supportive for all who seek guidance. Would you like to rephrase your question so we can work together more positively?",
}

const genericViolationResponse = "I'm unable to provide guidance on that topic. Let's explore something else that aligns with tarot, astrology, and spiritual wisdom."

// SelfHarmHotlineResponse is prepended to any self-harm block so crisis
// resources always lead the reply.
func SelfHarmHotlineResponse() string {
	return "Please reach out to someone who can truly help:\n" +
		"National Suicide Prevention Lifeline: 988 (US)\n" +
		"Crisis Text Line: Text HOME to 741741\n" +
		"International crisis lines: findahelpline.com\n\n" +
		"You are not alone, and help is available right now. Your life has value."
}

func violationResponse(vtype ViolationType) string {
	if r, ok := violationResponses[vtype]; ok {
		return r
	}
	return genericViolationResponse
}

// WarningResponse is the first-offense reply for established accounts.
func WarningResponse(vtype ViolationType) string {
	return violationResponse(vtype) +
		"\n\nThis is a formal warning. Further violations of this kind will lead to suspension of your account."
}

// SuspensionResponse is the second-offense reply.
func SuspensionResponse(vtype ViolationType) string {
	return violationResponse(vtype) +
		"\n\nBecause this has happened before, your account has been suspended for 7 days. You will be able to return once the suspension period ends."
}

// PermanentBanResponse is the terminal reply.
func PermanentBanResponse(vtype ViolationType) string {
	return violationResponse(vtype) +
		"\n\nYour account has been permanently disabled due to repeated violations of our community guidelines. If you wish to appeal, please contact support."
}

// TempAccountViolationResponse is the zero-tolerance reply for trial
// accounts, which are deleted on the first enforced violation.
func TempAccountViolationResponse(vtype ViolationType) string {
	return violationResponse(vtype) +
		"\n\nBecause this is a trial account, it has been removed. You are welcome to return with a full account and a fresh start."
}

// RedemptionPathMessage explains how a warning can lift on its own.
// Appended only to warnings for redeemable violation types.
func RedemptionPathMessage(vtype ViolationType) string {
	switch vtype {
	case ViolationAbusiveLanguage:
		return "\n\nA path forward: moments of frustration happen. If you keep your interactions respectful over the next 24 hours, this warning will be cleared from your record and we'll start fresh."
	case ViolationSexualContent:
		return "\n\nA path forward: everyone tests boundaries sometimes. If you can honor our community guidelines for the next 7 days, this warning will be cleared and you'll get a fresh start."
	default:
		return ""
	}
}

// Canned account-status replies used by the router's gate.
const (
	disabledAccountResponse = "Your account has been permanently disabled due to repeated violations of our community guidelines. If you wish to appeal, please contact support."

	suspendedAccountResponse = "Your account is currently suspended. Please try again after the suspension period ends."

	// genericFailureResponse surfaces when chat generation fails for
	// internal reasons; internal detail never leaks to the user.
	genericFailureResponse = "The cosmic channels are cloudy right now and I'm unable to respond. Please try again in a moment."
)
