package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dengarop/herdbook/internal/api"
	"github.com/dengarop/herdbook/internal/capture"
	"github.com/dengarop/herdbook/internal/classifier"
	"github.com/dengarop/herdbook/internal/listview"
	"github.com/dengarop/herdbook/internal/model"
	"github.com/dengarop/herdbook/internal/pipeline"
	"github.com/dengarop/herdbook/internal/store"
	"github.com/dengarop/herdbook/internal/transfer"
)

func validRange(r string) bool {
	switch r {
	case listview.RangeAll, listview.RangeToday, listview.Range7Days, listview.Range30Days:
		return true
	}
	return false
}

func (a *app) runLogin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	user := fs.String("user", "", "admin username")
	password := fs.String("password", "", "admin password (prompted if omitted)")
	apiBase := fs.String("api", a.cfg.APIBase, "backend base URL")
	fs.Parse(args)

	if *user == "" {
		return fmt.Errorf("-user is required")
	}
	if *apiBase == "" {
		return fmt.Errorf("no backend URL: set -api or apiBase in the config file")
	}

	pw := *password
	if pw == "" {
		fmt.Fprint(os.Stderr, "Password: ")
		scanner := bufio.NewScanner(os.Stdin)
		if !scanner.Scan() {
			return fmt.Errorf("reading password: %w", scanner.Err())
		}
		pw = scanner.Text()
	}

	token, err := api.Login(ctx, *apiBase, *user, pw, a.cfg.HTTPTimeout)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	if err := store.SaveSession(ctx, a.db, token, *apiBase); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	sess, _ := a.loadSession(ctx)
	if sess != nil {
		if exp := sess.ExpiresAt(); !exp.IsZero() {
			fmt.Printf("Logged in as %s (session expires %s)\n", *user, exp.Format(time.RFC3339))
			return nil
		}
	}
	fmt.Printf("Logged in as %s\n", *user)
	return nil
}

func (a *app) runLogout(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("logout", flag.ExitOnError)
	fs.Parse(args)

	if err := store.ClearSession(ctx, a.db); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	fmt.Println("Logged out.")
	return nil
}

func (a *app) runCows(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("cows", flag.ExitOnError)
	search := fs.String("search", "", "match against tag, breed and owner name")
	breed := fs.String("breed", listview.FilterAll, "filter by breed")
	color := fs.String("color", listview.FilterAll, "filter by color")
	dateRange := fs.String("range", listview.RangeAll, "registration date range: all, today, 7d, 30d")
	page := fs.Int("page", 1, "page number")
	group := fs.String("group", "", "group output by 'breed' or 'owner'")
	fs.Parse(args)

	if !validRange(*dateRange) {
		return fmt.Errorf("invalid -range %q (use all, today, 7d or 30d)", *dateRange)
	}
	var groupKey func(model.Cow) string
	switch *group {
	case "":
	case "breed":
		groupKey = func(c model.Cow) string { return c.Breed }
	case "owner":
		groupKey = func(c model.Cow) string { return c.Owner.FullName }
	default:
		return fmt.Errorf("invalid -group %q (use breed or owner)", *group)
	}

	client, err := a.client(ctx)
	if err != nil {
		return err
	}
	cows, err := client.ListCows(ctx)
	if err != nil {
		return fmt.Errorf("fetching cattle: %w", err)
	}

	lv := &listview.Controller[model.Cow]{
		SearchFields: func(c model.Cow) []string {
			return []string{c.Tag, c.Breed, c.Owner.FullName}
		},
		FilterFields: map[string]func(model.Cow) string{
			"breed": func(c model.Cow) string { return c.Breed },
			"color": func(c model.Cow) string { return c.Color },
		},
		TimeField: func(c model.Cow) time.Time { return c.CreatedAt },
		Less: func(x, y model.Cow) bool {
			return x.CreatedAt.After(y.CreatedAt)
		},
		PageSize: a.cfg.PageSize,
	}
	lv.SetSource(cows)
	lv.SetSearch(*search)
	lv.SetFilter("breed", *breed)
	lv.SetFilter("color", *color)
	lv.SetDateRange(*dateRange)
	lv.SetPage(*page)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	if groupKey != nil {
		for _, g := range lv.GroupBy(groupKey) {
			fmt.Fprintf(w, "%s\t(%d)\n", g.Key, len(g.Items))
			for _, c := range g.Items {
				fmt.Fprintf(w, "  %s\t%s\t%d yr\t%s\n", c.Tag, c.Color, c.Age, c.Owner.FullName)
			}
		}
		w.Flush()
		return nil
	}

	fmt.Fprintln(w, "TAG\tBREED\tCOLOR\tAGE\tOWNER\tREGISTERED")
	for _, c := range lv.Items() {
		registered := ""
		if !c.CreatedAt.IsZero() {
			registered = c.CreatedAt.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			c.Tag, c.Breed, c.Color, c.Age, c.Owner.FullName, registered)
	}
	w.Flush()
	fmt.Printf("Page %d of %d (%d matching)\n", lv.Page(), lv.Pages(), lv.Total())
	return nil
}

func (a *app) runOwners(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("owners", flag.ExitOnError)
	search := fs.String("search", "", "match against name, phone and email")
	page := fs.Int("page", 1, "page number")
	fs.Parse(args)

	client, err := a.client(ctx)
	if err != nil {
		return err
	}
	owners, err := client.ListOwners(ctx)
	if err != nil {
		return fmt.Errorf("fetching owners: %w", err)
	}

	// Refresh the local cache used for phone lookups at registration.
	if err := store.ReplaceOwnerCache(ctx, a.db, owners); err != nil {
		slog.Warn("failed to refresh owner cache", "error", err)
	}

	lv := &listview.Controller[model.Owner]{
		SearchFields: func(o model.Owner) []string {
			return []string{o.FullName, o.Phone, o.Email, o.NationalID}
		},
		Less: func(x, y model.Owner) bool {
			return strings.ToLower(x.FullName) < strings.ToLower(y.FullName)
		},
		PageSize: a.cfg.PageSize,
	}
	lv.SetSource(owners)
	lv.SetSearch(*search)
	lv.SetPage(*page)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPHONE\tEMAIL\tADDRESS")
	for _, o := range lv.Items() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", o.FullName, o.Phone, o.Email, o.Address)
	}
	w.Flush()
	fmt.Printf("Page %d of %d (%d matching)\n", lv.Page(), lv.Pages(), lv.Total())
	return nil
}

func (a *app) runReports(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reports", flag.ExitOnError)
	search := fs.String("search", "", "match against reporter and message")
	status := fs.String("status", listview.FilterAll, "filter by status: pending, urgent, resolved")
	dateRange := fs.String("range", listview.RangeAll, "date range: all, today, 7d, 30d")
	page := fs.Int("page", 1, "page number")
	fs.Parse(args)

	if !validRange(*dateRange) {
		return fmt.Errorf("invalid -range %q (use all, today, 7d or 30d)", *dateRange)
	}
	if *status != listview.FilterAll && !model.ValidReportStatus(*status) {
		return fmt.Errorf("invalid -status %q", *status)
	}

	client, err := a.client(ctx)
	if err != nil {
		return err
	}
	reports, err := client.ListReports(ctx)
	if err != nil {
		return fmt.Errorf("fetching reports: %w", err)
	}

	lv := &listview.Controller[model.Report]{
		SearchFields: func(r model.Report) []string {
			return []string{r.ReporterName, r.CowTag, r.Message}
		},
		FilterFields: map[string]func(model.Report) string{
			"status": func(r model.Report) string { return r.Status },
		},
		TimeField: func(r model.Report) time.Time { return r.CreatedAt },
		Less: func(x, y model.Report) bool {
			return x.CreatedAt.After(y.CreatedAt)
		},
		PageSize: a.cfg.PageSize,
	}
	lv.SetSource(reports)
	lv.SetSearch(*search)
	lv.SetFilter("status", *status)
	lv.SetDateRange(*dateRange)
	lv.SetPage(*page)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tREPORTER\tDATE\tMESSAGE")
	for _, r := range lv.Items() {
		msg := r.Message
		if len(msg) > 60 {
			msg = msg[:57] + "..."
		}
		date := ""
		if !r.CreatedAt.IsZero() {
			date = r.CreatedAt.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", r.ID, r.Status, r.ReporterName, date, msg)
	}
	w.Flush()
	fmt.Printf("Page %d of %d (%d matching)\n", lv.Page(), lv.Pages(), lv.Total())
	return nil
}

func (a *app) runReply(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reply", flag.ExitOnError)
	id := fs.Int64("id", 0, "report id")
	status := fs.String("status", model.ReportStatusResolved, "new status: pending, urgent, resolved")
	fs.Parse(args)

	if *id == 0 {
		return fmt.Errorf("-id is required")
	}
	message := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if message == "" {
		return fmt.Errorf("reply message is required, e.g. herdbook reply -id 12 'Thank you, resolved.'")
	}

	client, err := a.client(ctx)
	if err != nil {
		return err
	}
	if err := client.ReplyReport(ctx, *id, message, *status); err != nil {
		return fmt.Errorf("replying to report %d: %w", *id, err)
	}
	fmt.Printf("Replied to report %d, status set to %s.\n", *id, *status)
	return nil
}

func (a *app) runVerifications(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("verifications", flag.ExitOnError)
	search := fs.String("search", "", "match against tag and location")
	result := fs.String("result", listview.FilterAll, "filter by result: verified, no-match, all")
	dateRange := fs.String("range", listview.RangeAll, "date range: all, today, 7d, 30d")
	page := fs.Int("page", 1, "page number")
	byTag := fs.Bool("by-tag", false, "group output by cattle tag")
	byScore := fs.Bool("by-score", false, "sort by similarity score instead of time")
	fs.Parse(args)

	if !validRange(*dateRange) {
		return fmt.Errorf("invalid -range %q (use all, today, 7d or 30d)", *dateRange)
	}
	switch *result {
	case listview.FilterAll, "verified", "no-match":
	default:
		return fmt.Errorf("invalid -result %q (use verified, no-match or all)", *result)
	}

	client, err := a.client(ctx)
	if err != nil {
		return err
	}
	logs, err := client.ListVerifications(ctx)
	if err != nil {
		return fmt.Errorf("fetching verification logs: %w", err)
	}

	lv := &listview.Controller[model.VerificationLog]{
		SearchFields: func(v model.VerificationLog) []string {
			return []string{v.CowTag, v.Location}
		},
		FilterFields: map[string]func(model.VerificationLog) string{
			"result": func(v model.VerificationLog) string { return verdictKey(v.Verified) },
		},
		TimeField: func(v model.VerificationLog) time.Time { return v.CreatedAt },
		Less: func(x, y model.VerificationLog) bool {
			return x.CreatedAt.After(y.CreatedAt)
		},
		PageSize: a.cfg.PageSize,
	}
	if *byScore {
		lv.Less = func(x, y model.VerificationLog) bool {
			return x.SimilarityScore > y.SimilarityScore
		}
	}
	lv.SetSource(logs)
	lv.SetSearch(*search)
	lv.SetFilter("result", *result)
	lv.SetDateRange(*dateRange)
	lv.SetPage(*page)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	if *byTag {
		for _, g := range lv.GroupBy(func(v model.VerificationLog) string { return v.CowTag }) {
			fmt.Fprintf(w, "%s\t(%d checks)\n", g.Key, len(g.Items))
			for _, v := range g.Items {
				fmt.Fprintf(w, "  %s\t%.0f%%\t%s\t%s\n",
					verdict(v.Verified), v.SimilarityScore*100, v.Location, v.CreatedAt.Format("2006-01-02 15:04"))
			}
		}
		w.Flush()
		return nil
	}

	fmt.Fprintln(w, "TAG\tRESULT\tSCORE\tLOCATION\tTIME")
	for _, v := range lv.Items() {
		fmt.Fprintf(w, "%s\t%s\t%.0f%%\t%s\t%s\n",
			v.CowTag, verdict(v.Verified), v.SimilarityScore*100, v.Location, v.CreatedAt.Format("2006-01-02 15:04"))
	}
	w.Flush()
	fmt.Printf("Page %d of %d (%d matching)\n", lv.Page(), lv.Pages(), lv.Total())
	return nil
}

func verdict(verified bool) string {
	if verified {
		return "verified"
	}
	return "no match"
}

// verdictKey is the categorical filter value for a verification outcome.
func verdictKey(verified bool) string {
	if verified {
		return "verified"
	}
	return "no-match"
}

func (a *app) runRegister(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	ownerName := fs.String("owner", "", "owner full name")
	phone := fs.String("phone", "", "owner phone number")
	email := fs.String("email", "", "owner email")
	address := fs.String("address", "", "owner address")
	nationalID := fs.String("national-id", "", "owner national id")
	breed := fs.String("breed", "", "breed, e.g. "+strings.Join(model.Breeds, ", "))
	color := fs.String("color", "", "animal color")
	age := fs.Int("age", 0, "animal age in years")
	noseList := fs.String("nose", "", "comma-separated paths of 3 nose print images (fallback when no camera)")
	facialPath := fs.String("facial", "", "path of the facial image")
	useCamera := fs.Bool("camera", false, "capture nose prints with the configured camera command")
	fs.Parse(args)

	if *ownerName == "" || *phone == "" {
		return fmt.Errorf("-owner and -phone are required")
	}
	if *breed == "" {
		return fmt.Errorf("-breed is required")
	}
	if *facialPath == "" {
		return fmt.Errorf("-facial is required")
	}
	if a.cfg.ValidatorBase == "" {
		return fmt.Errorf("no validator URL: set validatorBase in the config file")
	}

	client, err := a.client(ctx)
	if err != nil {
		return err
	}
	validator := classifier.New(a.cfg.ValidatorBase, a.cfg.ValidatorTimeout)

	lookup := func(ctx context.Context, phone string) (*model.Owner, error) {
		return store.CachedOwnerByPhone(ctx, a.db, phone)
	}

	p := pipeline.New(validator, client, lookup, a.cfg.ConfidenceThreshold, slog.Default())
	if err := p.SetDetails(pipeline.Details{
		OwnerFullName:   *ownerName,
		OwnerPhone:      *phone,
		OwnerEmail:      *email,
		OwnerAddress:    *address,
		OwnerNationalID: *nationalID,
		Breed:           *breed,
		Color:           *color,
		Age:             *age,
	}); err != nil {
		return err
	}

	if known, err := p.SuggestOwner(ctx); err == nil && known != nil {
		fmt.Printf("Note: phone %s matches existing owner %s.\n", known.Phone, known.FullName)
	}

	// Advisory only; the backend assigns the real tag at submission.
	if next, err := client.NextTag(ctx); err == nil && next != "" {
		fmt.Printf("Next tag (preview): %s\n", next)
	}

	source, err := a.noseSource(*useCamera, *noseList)
	if err != nil {
		return err
	}

	for i := 0; i < model.RequiredNoseImages; i++ {
		data, err := source.Capture(ctx)
		if err != nil {
			return fmt.Errorf("acquiring nose image %d: %w", i+1, err)
		}
		if err := p.AddNoseImage(data); err != nil {
			return fmt.Errorf("nose image %d: %w", i+1, err)
		}
		fmt.Printf("Nose print %d/%d completed.\n", p.NoseCount(), model.RequiredNoseImages)
	}

	facial, err := os.ReadFile(*facialPath)
	if err != nil {
		return fmt.Errorf("reading facial image: %w", err)
	}
	if err := p.SetFacialImage(facial); err != nil {
		return fmt.Errorf("facial image: %w", err)
	}

	fmt.Println("Validating nose prints...")
	result, err := p.Submit(ctx)
	if err != nil {
		var verr *pipeline.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("validation failed: %w", verr)
		}
		return err
	}

	if result.Duplicate {
		fmt.Printf("This animal is already registered as %s. No new record was created.\n", result.ExistingTag)
		return nil
	}
	fmt.Printf("Registered. Assigned tag: %s\n", result.Tag)
	fmt.Printf("Download the receipt with: herdbook receipt -tag %s\n", result.Tag)
	return nil
}

// noseSource picks the image source for nose prints. A dead camera is not
// fatal when file paths were given; the registration proceeds from files.
func (a *app) noseSource(useCamera bool, noseList string) (capture.Source, error) {
	var files *capture.FileSource
	if noseList != "" {
		paths := strings.Split(noseList, ",")
		if len(paths) != model.RequiredNoseImages {
			return nil, fmt.Errorf("-nose needs exactly %d paths, got %d", model.RequiredNoseImages, len(paths))
		}
		for i := range paths {
			paths[i] = strings.TrimSpace(paths[i])
		}
		files = &capture.FileSource{Paths: paths}
	}

	if !useCamera {
		if files == nil {
			return nil, fmt.Errorf("provide -nose files or use -camera")
		}
		return files, nil
	}

	parts := strings.Fields(a.cfg.CaptureCommand)
	cam := &capture.CommandSource{}
	if len(parts) > 0 {
		cam.Command = parts[0]
		cam.Args = parts[1:]
	}
	return &fallbackSource{camera: cam, files: files}, nil
}

// fallbackSource tries the camera first and falls back to file input when
// the camera is unavailable.
type fallbackSource struct {
	camera capture.Source
	files  *capture.FileSource
	warned bool
}

func (s *fallbackSource) Capture(ctx context.Context) ([]byte, error) {
	data, err := s.camera.Capture(ctx)
	if err != nil && errors.Is(err, capture.ErrCameraUnavailable) && s.files != nil {
		if !s.warned {
			slog.Warn("camera unavailable, falling back to image files", "error", err)
			s.warned = true
		}
		return s.files.Capture(ctx)
	}
	return data, err
}

func (a *app) runTransfer(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("transfer", flag.ExitOnError)
	tag := fs.String("tag", "", "cattle tag to transfer")
	ownerName := fs.String("owner", "", "new owner full name")
	phone := fs.String("phone", "", "new owner phone number")
	email := fs.String("email", "", "new owner email")
	address := fs.String("address", "", "new owner address")
	nationalID := fs.String("national-id", "", "new owner national id")
	reason := fs.String("reason", model.ReasonSale, "transfer reason: sale, gift, inheritance, other")
	sms := fs.Bool("sms", false, "notify the new owner by SMS")
	emailNotify := fs.Bool("email-notify", false, "notify the new owner by email")
	approval := fs.Bool("approval", false, "require new-owner approval")
	fs.Parse(args)

	if *tag == "" {
		return fmt.Errorf("-tag is required")
	}

	payload, err := transfer.Build(transfer.Request{
		NewOwner: model.Owner{
			FullName:   *ownerName,
			Phone:      *phone,
			Email:      *email,
			Address:    *address,
			NationalID: *nationalID,
		},
		Reason:          *reason,
		SendSMS:         *sms,
		SendEmail:       *emailNotify,
		RequireApproval: *approval,
	})
	if err != nil {
		return err
	}

	client, err := a.client(ctx)
	if err != nil {
		return err
	}

	cow, err := findCowByTag(ctx, client, *tag)
	if err != nil {
		return err
	}
	fmt.Printf("Transferring %s (%s, %s) from %s.\n", cow.Tag, cow.Breed, cow.Color, cow.Owner.FullName)

	outcome, err := client.Transfer(ctx, cow.ID, payload)
	if err != nil {
		return fmt.Errorf("transferring %s: %w", cow.Tag, err)
	}

	fmt.Printf("Transferred %s to %s.\n", cow.Tag, payload.NewOwnerFullName)
	fmt.Printf("Fee: %.2f  Reference: %s\n", payload.Fee, payload.Reference)
	if payload.SendEmail && !outcome.EmailSent {
		slog.Warn("transfer completed but email notification was not sent")
	}
	if payload.SendSMS && !outcome.SMSSent {
		slog.Warn("transfer completed but SMS notification was not sent")
	}
	return nil
}

// findCowByTag resolves a tag to its record via the cattle list. Tags are
// matched case-insensitively.
func findCowByTag(ctx context.Context, client *api.Client, tag string) (model.Cow, error) {
	cows, err := client.ListCows(ctx)
	if err != nil {
		return model.Cow{}, fmt.Errorf("fetching cattle: %w", err)
	}
	for _, c := range cows {
		if strings.EqualFold(c.Tag, tag) {
			return c, nil
		}
	}
	return model.Cow{}, fmt.Errorf("no cattle record with tag %s", tag)
}

func (a *app) runDelete(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	tag := fs.String("tag", "", "cattle tag to delete")
	yes := fs.Bool("yes", false, "confirm deletion")
	fs.Parse(args)

	if *tag == "" {
		return fmt.Errorf("-tag is required")
	}
	if !*yes {
		return fmt.Errorf("deleting %s is permanent; re-run with -yes to confirm", *tag)
	}

	client, err := a.client(ctx)
	if err != nil {
		return err
	}
	if err := client.DeleteCow(ctx, *tag); err != nil {
		return fmt.Errorf("deleting %s: %w", *tag, err)
	}
	fmt.Printf("Deleted %s.\n", *tag)
	return nil
}

func (a *app) runReceipt(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("receipt", flag.ExitOnError)
	tag := fs.String("tag", "", "cattle tag")
	out := fs.String("out", "", "output path (default <tag>.pdf)")
	fs.Parse(args)

	if *tag == "" {
		return fmt.Errorf("-tag is required")
	}
	path := *out
	if path == "" {
		path = *tag + ".pdf"
	}

	client, err := a.client(ctx)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	n, err := client.DownloadReceipt(ctx, *tag, f)
	if err != nil {
		os.Remove(path)
		return fmt.Errorf("downloading receipt for %s: %w", *tag, err)
	}
	fmt.Printf("Saved receipt for %s to %s (%d bytes).\n", *tag, path, n)
	return nil
}

func (a *app) runNextTag(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("next-tag", flag.ExitOnError)
	fs.Parse(args)

	client, err := a.client(ctx)
	if err != nil {
		return err
	}
	tag, err := client.NextTag(ctx)
	if err != nil {
		return fmt.Errorf("fetching next tag: %w", err)
	}
	fmt.Printf("Next tag: %s\n", tag)
	return nil
}
