package workflow

// Notice ids. A later notice with the same id replaces the earlier one.
const (
	noticeValidation = "validation"
	noticeSave       = "save"
	noticeUpdate     = "update"
	noticeCopy       = "copy"
	noticeLoad       = "load"
	noticeDelete     = "delete"
	noticeConfirm    = "confirm-delete"
	noticePDF        = "pdf"
)

const (
	msgSaving     = "Saving itinerary..."
	msgSaved      = "Itinerary saved successfully!"
	msgSaveFailed = "Failed to save itinerary"

	msgUpdating     = "Updating itinerary..."
	msgUpdated      = "Updated successfully!"
	msgUpdateFailed = "Failed to update itinerary"

	msgCopying    = "Saving copy..."
	msgCopied     = "Saved as new itinerary!"
	msgCopyFailed = "Could not save copy"

	msgDeleting      = "Deleting itinerary..."
	msgDeleted       = "Deleted successfully"
	msgDeleteFailed  = "Error deleting item"
	msgConfirmFailed = "Could not start delete confirmation"

	msgLoadFailed     = "Error loading itinerary"
	msgListLoadFailed = "Failed to load itineraries"

	msgPDFLoading = "Generating PDF..."
	msgPDFDone    = "PDF Downloaded!"
	msgPDFFailed  = "Failed to generate PDF"
)

// EmptyList is shown when there are no saved itineraries.
const EmptyList = "No itineraries found"
