package registration

// NoticeKind is the severity of a user-facing notice.
type NoticeKind string

const (
	NoticeInfo    NoticeKind = "info"
	NoticeSuccess NoticeKind = "success"
	NoticeWarning NoticeKind = "warning"
	NoticeError   NoticeKind = "error"
)

// NoticeCode identifies what happened, independent of the message wording.
type NoticeCode string

const (
	CodeFileRejected         NoticeCode = "file-rejected"
	CodeDetectionUnavailable NoticeCode = "detection-unavailable"
	CodeNoCardDetected       NoticeCode = "no-card-detected"
	CodeDetectionError       NoticeCode = "detection-error"
	CodeConfiguration        NoticeCode = "configuration-error"
	CodeInvalidCrop          NoticeCode = "invalid-crop"
	CodeRasterError          NoticeCode = "raster-error"
	CodeAutofillNeedsCard    NoticeCode = "autofill-needs-documents"
	CodeAutofillComplete     NoticeCode = "autofill-complete"
	CodeExtractionFailed     NoticeCode = "extraction-failed"
	CodeValidationFailed     NoticeCode = "validation-failed"
	CodeSubmitted            NoticeCode = "submitted"
)

// Messages shown to the user.
const (
	msgNoCardDetected    = "স্বয়ংক্রিয়ভাবে কার্ড সনাক্ত করা যায়নি। অনুগ্রহ করে ম্যানুয়ালি ক্রপ করুন।"
	msgDetectionError    = "কার্ড ক্রপ করার সময় একটি ত্রুটি ঘটেছে।"
	msgDetectionDown     = "Automatic card detection is unavailable right now. Please crop the card manually."
	msgConfiguration     = "Automatic detection and auto-fill are not configured. Manual entry and cropping still work."
	msgInvalidCrop       = "Select an area to crop before saving."
	msgRasterError       = "The cropped image could not be created. Try again or cancel."
	msgAutofillNeedsCard = "অটোফিল সুবিধা ব্যবহার করতে NID এর ফ্রন্ট ও ব্যাক সাইড স্ক্যান আপলোড করুন।"
	msgAutofillComplete  = "স্ক্যান থেকে তথ্য সফলভাবে পড়া হয়েছে এবং ফরম পূরণ করা হয়েছে!\n\nদয়া করে সব তথ্য যাচাই করুন এবং প্রয়োজনে সংশোধন করুন।"
	msgExtractionFailed  = "Failed to auto-fill form. Please fill the form manually."
	msgValidationFailed  = "দুঃখিত, অনুগ্রহ করে সকল প্রয়োজনীয় তথ্য পূরণ করুন এবং ফাইল আপলোড করুন।"
)

// Notice is a message for the user. Err carries the underlying failure, if any.
type Notice struct {
	Kind    NoticeKind
	Code    NoticeCode
	Message string
	Err     error
}

// Notifier receives notices as they happen.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }
