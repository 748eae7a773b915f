package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"referral-tracking-api/models"
	"referral-tracking-api/repository"
)

// defaultRosters is the initial reviewer mapping loaded into an empty
// departments table. After seeding, the table is the only source of truth.
var defaultRosters = map[string][]string{
	"Software Development":          {"aditya.kelkar@tor.ai", "jatin.bhole@tor.ai", "shweta.kulkarni@tor.ai"},
	"Hardware Development":          {"aditya.kelkar@tor.ai", "milind.vaze@tor.ai", "shweta.kulkarni@tor.ai"},
	"Firmware Development":          {"aditya.kelkar@tor.ai", "hrishikesh.limaye@tor.ai", "shweta.kulkarni@tor.ai"},
	"Finance & Legal":               {"aditya.paranjpe@tor.ai", "priyanka.agarwal@tor.ai", "shweta.kulkarni@tor.ai"},
	"Support-IOT":                   {"swati.chavare@tor.ai", "makarand.jadhav@tor.ai", "shweta.kulkarni@tor.ai"},
	"Strategic Partnership and SEA": {"rajesh.kulkarni@tor.ai", "omkar.pant@tor.ai", "shweta.kulkarni@tor.ai"},
	"Quality Assurance":             {"aditya.kelkar@tor.ai", "milind.vaze@tor.ai", "ravindra.barbade@tor.ai", "shweta.kulkarni@tor.ai"},
	"Production":                    {"swati.chavare@tor.ai", "nilesh.mungase@tor.ai", "shweta.kulkarni@tor.ai"},
	"Implementation":                {"swati.chavare@tor.ai", "makarand.jadhav@tor.ai", "shweta.kulkarni@tor.ai"},
	"Supply Chain Management":       {"swati.chavare@tor.ai", "siddhi.phatak@tor.ai", "shweta.kulkarni@tor.ai"},
	"Business Development":          {"rajesh.kulkarni@tor.ai", "ashish.bharadwaj@tor.ai", "ganesh.kamble@tor.ai", "shweta.kulkarni@tor.ai"},
	"Product Management":            {"aditya.paranjpe@tor.ai", "rohit.pandita@tor.ai", "shweta.kulkarni@tor.ai"},
	"Marketing":                     {"rajesh.kulkarni@tor.ai", "ashish.bharadwaj@tor.ai", "ganesh.kamble@tor.ai", "shweta.kulkarni@tor.ai"},
	"Sales":                         {"rajesh.kulkarni@tor.ai", "vaibhav.dhole@tor.ai", "shweta.kulkarni@tor.ai"},
	"Human Resource Management":     {"aditya.paranjpe@tor.ai", "abhishek.ganguly@tor.ai", "shweta.kulkarni@tor.ai"},
	"Systems Management":            {"aditya.kelkar@tor.ai", "jatin.bhole@tor.ai", "shweta.kulkarni@tor.ai"},
}

// reviewerName turns "first.last@host" into "First Last".
func reviewerName(email string) string {
	local := strings.SplitN(email, "@", 2)[0]
	parts := strings.FieldsFunc(local, func(r rune) bool { return r == '.' || r == '_' || r == '-' })
	for i, p := range parts {
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

// DefaultEmailTemplates holds a starter template for every purpose.
func DefaultEmailTemplates() []models.EmailTemplate {
	body := func(lines ...string) string {
		return "<p>Hello,</p><p>" + strings.Join(lines, "</p><p>") +
			`</p><p><a href="{{ portal_link }}">Open the referral portal</a></p>`
	}
	return []models.EmailTemplate{
		{Purpose: models.PurposeCVToSBU, Subject: "New CV referral: {{ candidate_name }}",
			HTMLBody: body("A new CV for <b>{{ candidate_name }}</b> has been referred to you for review.")},
		{Purpose: models.PurposeCVUpdatedSBU, Subject: "CV referral updated: {{ candidate_name }}",
			HTMLBody: body("The referral for <b>{{ candidate_name }}</b> has been updated by the referrer.")},
		{Purpose: models.PurposeCVDeletedSBU, Subject: "CV referral withdrawn: {{ candidate_name }}",
			HTMLBody: body("The referral for <b>{{ candidate_name }}</b> has been withdrawn and no longer needs review.")},
		{Purpose: models.PurposeCVRejectedSBU, Subject: "Your referral of {{ candidate_name }} was not taken forward",
			HTMLBody: body("The SBU reviewed <b>{{ candidate_name }}</b> and decided not to proceed.", "Reason: {{ reason }}")},
		{Purpose: models.PurposeCVApprovedSBU, Subject: "Your referral of {{ candidate_name }} is being considered",
			HTMLBody: body("The SBU is considering <b>{{ candidate_name }}</b>. HR will follow up on the next steps.")},
		{Purpose: models.PurposeCVToHR, Subject: "CV ready for HR evaluation: {{ candidate_name }}",
			HTMLBody: body("<b>{{ candidate_name }}</b> was considered by the SBU and is ready for HR evaluation.")},
		{Purpose: models.PurposeCVRevokedBySBU, Subject: "SBU approval revoked: {{ candidate_name }}",
			HTMLBody: body("The SBU withdrew its approval of <b>{{ candidate_name }}</b>. No HR evaluation is needed.")},
		{Purpose: models.PurposeCVRejectedHR, Subject: "HR decision on {{ candidate_name }}",
			HTMLBody: body("HR has decided not to proceed with <b>{{ candidate_name }}</b>.", "Reason: {{ rejection_reason }}")},
		{Purpose: models.PurposeCVApprovedHR, Subject: "HR accepted {{ candidate_name }}",
			HTMLBody: body("Good news: HR has accepted <b>{{ candidate_name }}</b>. Thank you for the referral.")},
		{Purpose: models.PurposeCVApprovedSBUReferrer, Subject: "Your referral of {{ candidate_name }} was approved by the SBU",
			HTMLBody: body("The SBU approved <b>{{ candidate_name }}</b>.")},
		{Purpose: models.PurposeCVApprovedSBUToHR, Subject: "SBU approved {{ candidate_name }}",
			HTMLBody: body("The SBU approved <b>{{ candidate_name }}</b> for HR evaluation.")},
	}
}

// SeedEmailTemplates inserts the default template of every purpose that has
// none. Existing rows are never overwritten.
func SeedEmailTemplates(ctx context.Context, store repository.Store) (int, error) {
	created := 0
	for _, tmpl := range DefaultEmailTemplates() {
		_, err := store.FindEmailTemplate(ctx, tmpl.Purpose)
		if err == nil {
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return created, storeErr("find email template", "template", err)
		}
		tmpl := tmpl
		if err := store.SaveEmailTemplate(ctx, &tmpl); err != nil {
			return created, storeErr("create email template", "template", err)
		}
		created++
	}
	return created, nil
}

// SeedDepartments creates the default departments that do not exist yet and
// syncs their reviewers into SBU rows.
func SeedDepartments(ctx context.Context, store repository.Store) (int, error) {
	existing, err := store.ListDepartments(ctx)
	if err != nil {
		return 0, storeErr("list departments", "department", err)
	}
	have := make(map[string]bool, len(existing))
	for _, d := range existing {
		have[strings.ToLower(d.Name)] = true
	}

	admin := NewAdminService(store)
	created := 0
	for name, emails := range defaultRosters {
		if have[strings.ToLower(name)] {
			continue
		}
		reviewers := make([]models.Reviewer, 0, len(emails))
		for _, e := range emails {
			reviewers = append(reviewers, models.Reviewer{Name: reviewerName(e), Email: e})
		}
		if _, err := admin.CreateDepartment(ctx, name, reviewers); err != nil {
			return created, err
		}
		log.Printf("seeded department %q with %d reviewers", name, len(reviewers))
		created++
	}
	return created, nil
}
