package homework

import "fmt"

// Known review status codes.
const (
	StatusApproved  = "approved"
	StatusReviewing = "reviewing"
	StatusRejected  = "rejected"
)

// Verdicts maps a status code to the text shown to the student.
var Verdicts = map[string]string{
	StatusApproved:  "Работа проверена: ревьюеру всё понравилось. Ура!",
	StatusReviewing: "Работа взята на проверку ревьюером.",
	StatusRejected:  "Работа проверена: у ревьюера есть замечания.",
}

const statusMessageFormat = `Изменился статус проверки работы "%s". %s`

// ExtractStatusMessage renders the notification text for one submission.
func ExtractStatusMessage(h Homework) (string, error) {
	if h.decodeErr != nil {
		return "", fmt.Errorf("%w: unexpected record %s: %v", ErrStatusParse, h.raw, h.decodeErr)
	}
	if !h.HasName {
		return "", fmt.Errorf("%w: key \"homework_name\" is missing in %s", ErrStatusParse, h.raw)
	}
	verdict, ok := Verdicts[h.Status]
	if !ok {
		return "", fmt.Errorf("%w: unexpected status %q", ErrStatusParse, h.Status)
	}
	return fmt.Sprintf(statusMessageFormat, h.Name, verdict), nil
}
