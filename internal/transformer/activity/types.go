// Package activity builds the object and context activities of a statement.
// Builders never fail on missing rows; they substitute placeholder text and
// only return repository errors other than not-found.
package activity

// Activity type URIs.
const (
	TypeSite        = "http://id.tincanapi.com/activitytype/site"
	TypeSource      = "http://id.tincanapi.com/activitytype/source"
	TypeCourse      = "http://id.tincanapi.com/activitytype/lms/course"
	TypePoll        = "http://vocab.xapi.fr/activities/poll"
	TypeDatabase    = "http://id.tincanapi.com/activitytype/database"
	TypeForum       = "http://id.tincanapi.com/activitytype/discussion-forum"
	TypeAssessment  = "http://adlnet.gov/expapi/activities/assessment"
	TypeInteraction = "http://adlnet.gov/expapi/activities/cmi.interaction"
	TypeArticle     = "http://activitystrea.ms/schema/1.0/article"
	TypeFile        = "http://activitystrea.ms/schema/1.0/file"
	TypeEssay       = "http://id.tincanapi.com/activitytype/essay"
	TypeDiscussion  = "http://id.tincanapi.com/activitytype/discussion"
	TypeAttempt     = "http://adlnet.gov/expapi/activities/attempt"
	TypeLink        = "http://adlnet.gov/expapi/activities/link"
	TypeDocument    = "http://id.tincanapi.com/activitytype/document"
	TypeWebpage     = "http://activitystrea.ms/schema/1.0/page"
)

// Extension keys added when the matching config switches are on.
const (
	ShortIDExtension    = "https://w3id.org/learning-analytics/learning-management-system/short-id"
	ExternalIDExtension = "https://w3id.org/learning-analytics/learning-management-system/external-id"
)

// Description placeholders for modules that are gone or going.
const (
	DescriptionDeleted            = "deleted"
	DescriptionDeletionInProgress = "deletion in progress"
)
