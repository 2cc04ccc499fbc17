package notify

import (
	"fmt"
	"strings"

	"github.com/spec-kit/civic-intake/internal/domain"
)

var categoryHindi = map[string]string{
	domain.CategorySanitation:  "स्वच्छता और कचरा",
	domain.CategoryWater:       "पानी और जल निकासी",
	domain.CategoryElectricity: "बिजली और स्ट्रीटलाइट",
	domain.CategoryRoads:       "सड़क और परिवहन",
	domain.CategoryHealth:      "सार्वजनिक स्वास्थ्य और सुरक्षा",
	domain.CategoryEnvironment: "पर्यावरण और पार्क",
	domain.CategoryBuilding:    "भवन और बुनियादी ढांचा",
	domain.CategoryTaxes:       "कर और दस्तावेज",
	domain.CategoryEmergency:   "आपातकालीन सेवाएं",
	domain.CategoryAnimals:     "पशु देखभाल और नियंत्रण",
	domain.CategoryOther:       "अन्य",
}

var statusEnglish = map[domain.IssueStatus]string{
	domain.IssueStatusNew:            "Registered",
	domain.IssueStatusInProgress:     "In Progress - Work Started",
	domain.IssueStatusAdminCompleted: "Completed by Team",
	domain.IssueStatusCompleted:      "Fully Resolved",
}

var statusHindi = map[domain.IssueStatus]string{
	domain.IssueStatusNew:            "पंजीकृत",
	domain.IssueStatusInProgress:     "प्रगति में - कार्य शुरू",
	domain.IssueStatusAdminCompleted: "टीम द्वारा पूर्ण",
	domain.IssueStatusCompleted:      "पूर्णतः हल",
}

func statusLabel(labels map[domain.IssueStatus]string, status domain.IssueStatus) string {
	if label, ok := labels[status]; ok {
		return label
	}
	return string(status)
}

func categoryLabelHindi(category string) string {
	if label, ok := categoryHindi[category]; ok {
		return label
	}
	return category
}

// Bilingual reports whether messages for issue should carry Hindi.
func Bilingual(issue *domain.Issue) bool {
	return issue != nil && issue.Language == "hi"
}

// ConfirmationMessage acknowledges a newly registered issue.
func ConfirmationMessage(issue *domain.Issue, bilingual bool) string {
	if !bilingual {
		return strings.Join([]string{
			"Issue Registered",
			"",
			"Ticket ID: " + issue.TicketID,
			"Title: " + issue.Title,
			"Category: " + issue.Category,
			"Location: " + issue.Address,
			"",
			"We will process your request shortly.",
		}, "\n")
	}
	return strings.Join([]string{
		"Issue Registered / मुद्दा दर्ज किया गया",
		"",
		"Ticket ID: " + issue.TicketID,
		"",
		"Title / शीर्षक: " + issue.Title,
		"Category / श्रेणी:",
		"EN: " + issue.Category,
		"HI: " + categoryLabelHindi(issue.Category),
		"Location / स्थान: " + issue.Address,
		"",
		"We will process your request shortly.",
		"हम जल्द ही आपके अनुरोध पर कार्रवाई करेंगे।",
	}, "\n")
}

// MergedMessage tells a reporter their report joined an existing ticket.
func MergedMessage(issue *domain.Issue, bilingual bool) string {
	lines := []string{
		fmt.Sprintf("This issue was already reported. Your report was added to ticket %s (%d reports).", issue.TicketID, issue.IssueCount),
		"Current status: " + statusLabel(statusEnglish, issue.Status),
	}
	if bilingual {
		lines = append(lines,
			fmt.Sprintf("यह समस्या पहले ही दर्ज है। आपकी रिपोर्ट टिकट %s में जोड़ दी गई है।", issue.TicketID),
			"वर्तमान स्थिति: "+statusLabel(statusHindi, issue.Status),
		)
	}
	return strings.Join(lines, "\n")
}

// StatusUpdateMessage announces a workflow change.
func StatusUpdateMessage(issue *domain.Issue, newStatus domain.IssueStatus, bilingual bool) string {
	lines := []string{"Status Update"}
	if bilingual {
		lines[0] = "Status Update / स्थिति अपडेट"
	}
	lines = append(lines, "", "Ticket: "+issue.TicketID, "New Status: "+statusLabel(statusEnglish, newStatus))
	if bilingual {
		lines = append(lines, "नई स्थिति: "+statusLabel(statusHindi, newStatus))
	}
	lines = append(lines, "")

	switch newStatus {
	case domain.IssueStatusInProgress:
		lines = append(lines, "Your issue is being worked on! We will update you once completed.")
		if bilingual {
			lines = append(lines, "आपके मुद्दे पर काम शुरू हो गया है! पूर्ण होने पर हम आपको सूचित करेंगे।")
		}
	case domain.IssueStatusAdminCompleted:
		lines = append(lines, confirmationPrompt(bilingual)...)
	case domain.IssueStatusCompleted:
		lines = append(lines, "Your issue has been resolved! Thank you for your patience.")
		if bilingual {
			lines = append(lines, "आपका मुद्दा हल हो गया है! आपके धैर्य के लिए धन्यवाद।")
		}
	default:
		lines = append(lines, "Thank you for your patience.")
		if bilingual {
			lines = append(lines, "आपके धैर्य के लिए धन्यवाद।")
		}
	}
	return strings.Join(lines, "\n")
}

// ReminderMessage asks a reporter again to confirm a resolution.
func ReminderMessage(issue *domain.Issue, bilingual bool) string {
	lines := []string{"Reminder: ticket " + issue.TicketID + " was marked completed by our team.", ""}
	lines = append(lines, confirmationPrompt(bilingual)...)
	return strings.Join(lines, "\n")
}

// TicketNotFoundMessage answers a lookup for an unknown ticket ID. The reply
// is always bilingual since there is no issue language to go by.
func TicketNotFoundMessage(ticketID string) string {
	return fmt.Sprintf("No issue found for ticket %s. Please check the ID and try again.\n"+
		"टिकट %s के लिए कोई मुद्दा नहीं मिला। कृपया आईडी जांचें।", ticketID, ticketID)
}

// DetailsMessage answers a ticket lookup.
func DetailsMessage(issue *domain.Issue, bilingual bool) string {
	lines := []string{
		"Issue Details",
		"",
		"Ticket: " + issue.TicketID,
		"Status: " + statusLabel(statusEnglish, issue.Status),
		"Category: " + issue.Category,
		"Title: " + issue.Title,
		"Location: " + issue.Address,
		"Created: " + issue.CreatedAt,
	}
	if bilingual {
		lines[0] = "Issue Details / मुद्दे का विवरण"
		lines = append(lines,
			"स्थिति: "+statusLabel(statusHindi, issue.Status),
			"श्रेणी: "+categoryLabelHindi(issue.Category),
		)
	}
	return strings.Join(lines, "\n")
}

// DepartmentMessage alerts a department about a new issue in its category.
func DepartmentMessage(issue *domain.Issue) string {
	return fmt.Sprintf("New %s issue %s: %s (%s). Reported: %s",
		issue.Category, issue.TicketID, issue.Title, issue.Address, issue.CreatedAt)
}

func confirmationPrompt(bilingual bool) []string {
	lines := []string{
		"Work completed by our team! Is the issue actually resolved?",
		"Reply YES if it is resolved.",
	}
	if bilingual {
		lines = append(lines,
			"हमारी टीम द्वारा कार्य पूर्ण किया गया! क्या समस्या वास्तव में हल हो गई है?",
			"हल हो गई हो तो हाँ लिखकर जवाब दें।",
		)
	}
	return lines
}
