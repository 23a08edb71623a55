package cmd

import (
	"html/template"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mspro-labs/bol-lister/internal/config"
	"mspro-labs/bol-lister/internal/db"
	"mspro-labs/bol-lister/internal/extract"
	"mspro-labs/bol-lister/internal/models"
	"mspro-labs/bol-lister/internal/rehost"
	"mspro-labs/bol-lister/internal/scraper"
	"mspro-labs/bol-lister/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the review/edit web UI",
	Long: `Serves the scrape → edit → confirm → save workflow. Every scrape
renders the page in a headless browser, shows the extracted fields for
correction, and appends the confirmed row to the local database.`,
	Run: func(cmd *cobra.Command, args []string) {
		runServer()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// pageData is the payload every template receives.
type pageData struct {
	Flash     string
	FlashKind string
	Row       models.ListingRow
	Rows      []models.ListingRow
}

func runServer() {
	// 1. Setup
	appCfg, err := config.GetAppConfig()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	siteCfg := loadSiteConfigOrDefault(appCfg.ConfigPath)

	database, err := db.Connect(appCfg.DBPath)
	if err != nil {
		log.Fatalf("Database error: %v", err)
	}
	defer database.Close()

	// The image mirror gets its own scoped HTTP client: no ambient shared
	// session state.
	mirror, err := rehost.New(&http.Client{Timeout: 30 * time.Second}, appCfg.ImageDir)
	if err != nil {
		log.Fatalf("Image dir error: %v", err)
	}

	eng := extract.NewEngine(siteCfg.Marketplace.DomainToken, siteCfg.Marketplace.MediaMarker)
	pending := web.NewPendingStore()

	// 2. Pre-build Templates (SEPARATELY to avoid block collisions)
	base := template.New("base.html")
	base, err = base.ParseFS(web.GetTemplatesFS(), "templates/base.html")
	if err != nil {
		log.Fatalf("Failed to parse base template: %v", err)
	}
	pages := map[string]*template.Template{}
	for _, name := range []string{"home", "edit", "confirm", "rows"} {
		t, _ := base.Clone()
		t, err = t.ParseFS(web.GetTemplatesFS(), "templates/"+name+".html")
		if err != nil {
			log.Fatalf("Failed to parse %s template: %v", name, err)
		}
		pages[name] = t
	}

	renderPage := func(w http.ResponseWriter, name string, data pageData) {
		if err := pages[name].ExecuteTemplate(w, "base.html", data); err != nil {
			log.Printf("Template error: %v", err)
		}
	}

	flashFromQuery := func(r *http.Request) (string, string) {
		return r.URL.Query().Get("flash"), r.URL.Query().Get("kind")
	}

	pendingRow := func(r *http.Request) (string, models.ListingRow, bool) {
		c, err := r.Cookie(web.CookieName)
		if err != nil {
			return "", models.ListingRow{}, false
		}
		row, ok := pending.Get(c.Value)
		return c.Value, row, ok
	}

	// 3. Routes
	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		flash, kind := flashFromQuery(r)
		renderPage(w, "home", pageData{Flash: flash, FlashKind: kind})
	})

	http.HandleFunc("/scrape", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		url := strings.TrimSpace(r.FormValue("url"))
		if url == "" {
			renderPage(w, "home", pageData{Flash: "Voer een URL in.", FlashKind: "error"})
			return
		}
		if err := eng.ValidateURL(url); err != nil {
			renderPage(w, "home", pageData{Flash: "URL moet van bol.com zijn.", FlashKind: "error"})
			return
		}

		rec, err := scraper.Run(siteCfg, url)
		if err != nil {
			log.Printf("Scrape error: %v", err)
			renderPage(w, "home", pageData{Flash: "Scrapen mislukt: " + err.Error(), FlashKind: "error"})
			return
		}

		// Mirror the gallery locally; the row keeps the original URLs.
		go mirror.Fetch(rec.AllImages)

		token := web.NewToken()
		pending.Put(token, models.NewListingRow(rec))
		http.SetCookie(w, &http.Cookie{
			Name:     web.CookieName,
			Value:    token,
			Path:     "/",
			HttpOnly: true,
		})
		http.Redirect(w, r, "/edit", http.StatusSeeOther)
	})

	http.HandleFunc("/edit", func(w http.ResponseWriter, r *http.Request) {
		token, row, ok := pendingRow(r)
		if !ok {
			http.Redirect(w, r, "/?flash=Geen+gegevens+om+te+bewerken.&kind=error", http.StatusSeeOther)
			return
		}

		if r.Method == http.MethodPost {
			applyForm(&row, r)
			pending.Put(token, row)
			http.Redirect(w, r, "/confirm", http.StatusSeeOther)
			return
		}

		flash, kind := flashFromQuery(r)
		renderPage(w, "edit", pageData{Flash: flash, FlashKind: kind, Row: row})
	})

	http.HandleFunc("/confirm", func(w http.ResponseWriter, r *http.Request) {
		_, row, ok := pendingRow(r)
		if !ok {
			http.Redirect(w, r, "/?flash=Geen+gegevens+om+te+bevestigen.&kind=error", http.StatusSeeOther)
			return
		}
		flash, kind := flashFromQuery(r)
		renderPage(w, "confirm", pageData{Flash: flash, FlashKind: kind, Row: row})
	})

	http.HandleFunc("/save", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Redirect(w, r, "/confirm", http.StatusSeeOther)
			return
		}
		token, row, ok := pendingRow(r)
		if !ok {
			http.Redirect(w, r, "/?flash=Geen+gegevens+om+op+te+slaan.&kind=error", http.StatusSeeOther)
			return
		}
		if _, err := db.AppendRow(database, row); err != nil {
			log.Printf("Save error: %v", err)
			renderPage(w, "confirm", pageData{Flash: "Opslaan mislukt: " + err.Error(), FlashKind: "error", Row: row})
			return
		}
		pending.Delete(token)
		http.Redirect(w, r, "/?flash=Product+opgeslagen.&kind=success", http.StatusSeeOther)
	})

	http.HandleFunc("/rows", func(w http.ResponseWriter, r *http.Request) {
		listings, err := db.ListRows(database)
		if err != nil {
			log.Printf("DB error: %v", err)
			http.Error(w, "Failed to load rows", http.StatusInternalServerError)
			return
		}
		flash, kind := flashFromQuery(r)
		renderPage(w, "rows", pageData{Flash: flash, FlashKind: kind, Rows: listings})
	})

	http.HandleFunc("/rows/delete", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Redirect(w, r, "/rows", http.StatusSeeOther)
			return
		}
		id, err := strconv.ParseInt(r.FormValue("id"), 10, 64)
		if err == nil {
			err = db.DeleteRow(database, id)
		}
		if err != nil {
			log.Printf("Delete error: %v", err)
			http.Redirect(w, r, "/rows?flash=Verwijderen+mislukt.&kind=error", http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, "/rows?flash=Rij+verwijderd.&kind=success", http.StatusSeeOther)
	})

	http.HandleFunc("/export", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="listings.csv"`)
		if err := db.ExportCSV(database, w); err != nil {
			log.Printf("Export error: %v", err)
		}
	})

	// Mirrored gallery images.
	http.Handle("/img/", http.StripPrefix("/img/", http.FileServer(http.Dir(mirror.Dir()))))

	// 4. Start Server
	log.Printf("Web UI started at http://localhost%s", appCfg.ListenAddr)
	server := &http.Server{
		Addr:         appCfg.ListenAddr,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 120 * time.Second, // scrape requests hold the connection while rendering
	}
	log.Fatal(server.ListenAndServe())
}

// applyForm copies the edit form back onto the pending row. Numeric fields
// coerce best-effort: an unparseable price becomes absent, an unparseable
// stock falls back to the template default.
func applyForm(row *models.ListingRow, r *http.Request) {
	row.Title = r.FormValue("title")
	row.Description = r.FormValue("description")
	row.InternalRef = r.FormValue("internal_ref")
	row.EAN = r.FormValue("ean")
	row.Condition = r.FormValue("condition")
	row.ConditionComment = r.FormValue("condition_comment")
	row.DeliveryTime = r.FormValue("delivery_time")
	row.DeliveryMethod = r.FormValue("delivery_method")
	row.ForSale = r.FormValue("for_sale")
	row.MainImage = r.FormValue("main_image")
	row.Participant = r.FormValue("participant")
	row.AllImages = r.FormValue("all_images")

	row.Price = extract.ParsePrice(r.FormValue("price"))

	if stock, err := strconv.Atoi(strings.TrimSpace(r.FormValue("stock"))); err == nil {
		row.Stock = stock
	} else {
		row.Stock = models.DefaultStock
	}
}
