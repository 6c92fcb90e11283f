package transformer

var (
	VerbAdded     = VerbDef{ID: "http://activitystrea.ms/schema/1.0/add", Display: "uploaded"}
	VerbDeleted   = VerbDef{ID: "http://activitystrea.ms/schema/1.0/delete", Display: "deleted"}
	VerbCreated   = VerbDef{ID: "http://activitystrea.ms/schema/1.0/create", Display: "created"}
	VerbUpdated   = VerbDef{ID: "http://activitystrea.ms/schema/1.0/update", Display: "updated"}
	VerbSubmitted = VerbDef{ID: "http://activitystrea.ms/schema/1.0/submit", Display: "submitted"}
	VerbStarted   = VerbDef{ID: "http://activitystrea.ms/schema/1.0/start", Display: "started"}
	VerbAnswered  = VerbDef{ID: "http://adlnet.gov/expapi/verbs/answered", Display: "answered"}
	VerbCompleted = VerbDef{ID: "http://adlnet.gov/expapi/verbs/completed", Display: "completed"}
	VerbViewed    = VerbDef{ID: "http://id.tincanapi.com/verb/viewed", Display: "viewed"}
	VerbEnrolled  = VerbDef{ID: "http://www.tincanapi.co.uk/verbs/enrolled_onto_learning_plan", Display: "enrolled onto"}
	VerbLoggedIn  = VerbDef{ID: "https://brindlewaye.com/xAPITerms/verbs/loggedin/", Display: "logged in to"}
)
