package flow

// Fixed reply texts. Replies built from session data live next to the state handlers.
const (
	replyOffline       = "I apologize, my medical knowledge system is currently offline. Please check back soon."
	replyReset         = "Okay, let's start fresh! What's your name?"
	replyHelpPrefix    = "I understand symptoms related to: "
	replyHelpSuffix    = "... and many more. Try describing how you feel."
	replyAskName       = "Hello! I'm ArogyaBot. What's your name, please?"
	replyNiceToMeet    = "Nice to meet you, %s! To help me understand your situation, please describe your main symptoms."
	replyNotedThose    = "I've noted those. Do you have any other symptoms you'd like to add?"
	replyNoSymptoms    = "I'm sorry, I didn't quite catch any symptoms. Could you please describe them again?"
	replyYesNo         = "Please answer 'yes' or 'no'. "
	replyMoreInfo      = "I need a bit more information. Are there any other symptoms at all, even minor ones?"
	replyStillMore     = "I still need a bit more information. Can you think of any other symptoms you're experiencing?"
	replyAskAge        = "Thanks. For our records, what is your age?"
	replyAskAgeRoutine = "Thank you. Just a couple of routine questions. What is your age?"
	replyAgeNoted      = "Age %d noted. And your biological sex? (Male/Female/Prefer not to say)"
	replyAgeUnlikely   = "That age seems unlikely. Could you please provide a valid age?"
	replyAgeUnparsed   = "I couldn't understand the age. Please enter it as a number (e.g., 'I am 30')."
	replySexRecorded   = "%s recorded. Thank you. I'll analyze your symptoms now..."
	replySexInvalid    = "Please specify Male, Female, or you can say 'Prefer not to say'."
	replyTooFew        = "I don't seem to have enough symptom information to make an analysis. Could we start over by you telling me your main symptoms?"
	replyNeedAge       = "Before I proceed, what is your age?"
	replyNeedSex       = "And your biological sex? (Male/Female/Prefer not to say)"
	replyPrediction    = "based on the symptoms, my analysis suggests it might be **%s** (Confidence: %.2f%%)."
	replyNoDescription = "No detailed description available for this condition."
	replyPrecautions   = "\n**Recommended Precautions:**\n- "
	replyDisclaimer    = "\n**Important Disclaimer:** This is an AI-generated suggestion and not a substitute for professional medical diagnosis. Please consult a qualified doctor for accurate advice and treatment."
	replyOfferDoctors  = "\nWould you like me to look for doctors in Bangladesh who might treat **%s**, %s? (yes/no)"
	replyTakeCare      = "Alright, %s. Please take good care of yourself."
	replyAnythingElse  = "\nIs there anything else I can help you with today?"
	replyDoctorYesNo   = "Please answer 'yes' or 'no' regarding the doctor search."
	replyFallback      = "I'm sorry, %sI'm not sure how to respond to that. You can tell me your symptoms, or type 'reset' to start over."
)
