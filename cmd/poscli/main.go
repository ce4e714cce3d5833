// poscli is a CLI tool for exercising the POS sales service.
// Each command performs a single operation, making it composable for scripts.
//
// Commands:
//
//	poscli open -svc URL
//	poscli add -svc URL -session ID -code TOKEN [-qty N]
//	poscli cart -svc URL -session ID
//	poscli suggest -svc URL -session ID -query PREFIX
//	poscli checkout -svc URL -session ID [-payment METHOD]
//	poscli cancel -svc URL -session ID [-confirm]
//	poscli close -svc URL -session ID
//
// Examples:
//
//	SID=$(poscli open -svc http://localhost:8080 -q)
//	poscli add -svc http://localhost:8080 -session $SID -code 7 -qty 2
//	poscli add -svc http://localhost:8080 -session $SID -code "Milk"
//	poscli checkout -svc http://localhost:8080 -session $SID -payment qr
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"pos-sales/internal/model"
)

var client = &http.Client{Timeout: 30 * time.Second}

// Global flags (apply to all commands)
var (
	svcURL     string
	registerID string
	quiet      bool
	noColor    bool
	verbose    bool
)

// ANSI color codes
var (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

func init() {
	if os.Getenv("NO_COLOR") != "" {
		disableColors()
	}
}

func disableColors() {
	colorReset, colorRed, colorGreen = "", "", ""
	colorYellow, colorCyan, colorGray, colorBold = "", "", "", ""
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "open":
		runOpen(args)
	case "add":
		runAdd(args)
	case "cart":
		runCart(args)
	case "suggest":
		runSuggest(args)
	case "checkout":
		runCheckout(args)
	case "cancel":
		runCancel(args)
	case "close":
		runClose(args)
	case "-h", "-help", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `poscli - POS sales service test tool

Usage:
  poscli <command> [options]

Commands:
  open      Open a register session
  add       Add a product by ID or name fragment
  cart      Show the current cart
  suggest   Search products by name prefix
  checkout  Submit the cart as a sale
  cancel    Cancel the sale (discards the cart with -confirm)
  close     Close a session

Examples:
  # Open a session and capture its ID
  SID=$(poscli open -svc http://localhost:8080 -q)

  # Ring up two of product 7, then one by name
  poscli add -svc http://localhost:8080 -session $SID -code 7 -qty 2
  poscli add -svc http://localhost:8080 -session $SID -code "Milk"

  # Settle by QR
  poscli checkout -svc http://localhost:8080 -session $SID -payment qr
`)
}

// newFlagSet creates a flag set with the flags every command shares.
func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.StringVar(&svcURL, "svc", "http://localhost:8080", "POS service base URL")
	fs.StringVar(&registerID, "register", "", "Register ID to send in the POS-Terminal header")
	fs.BoolVar(&quiet, "q", false, "Quiet mode - minimal output")
	fs.BoolVar(&noColor, "no-color", false, "Disable colored output")
	fs.BoolVar(&verbose, "v", false, "Verbose - show full request/response")
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) {
	fs.Parse(args)
	if noColor {
		disableColors()
	}
}

func runOpen(args []string) {
	fs := newFlagSet("open")
	parseFlags(fs, args)

	resp, err := doRequest("POST", "/sessions", nil)
	if err != nil {
		fatal("Failed to open session: %v", err)
	}

	sid, _ := resp["session_id"].(string)
	if quiet {
		fmt.Println(sid)
		return
	}
	printSuccess("Session opened")
	fmt.Printf("  Session ID: %s%s%s\n", colorGreen, sid, colorReset)
}

func runAdd(args []string) {
	fs := newFlagSet("add")
	var sessionID, code string
	var quantity int
	fs.StringVar(&sessionID, "session", "", "Session ID (required)")
	fs.StringVar(&code, "code", "", "Product token: numeric ID or name fragment (required)")
	fs.IntVar(&quantity, "qty", 1, "Quantity")
	parseFlags(fs, args)

	if sessionID == "" || code == "" {
		fs.Usage()
		os.Exit(1)
	}

	body := map[string]interface{}{"code": code, "quantity": quantity}
	resp, err := doRequest("POST", "/sessions/"+url.PathEscape(sessionID)+"/cart/items", body)
	if err != nil {
		fatal("Failed to add item: %v", err)
	}

	printCart(resp)
}

func runCart(args []string) {
	fs := newFlagSet("cart")
	var sessionID string
	fs.StringVar(&sessionID, "session", "", "Session ID (required)")
	parseFlags(fs, args)

	if sessionID == "" {
		fs.Usage()
		os.Exit(1)
	}

	resp, err := doRequest("GET", "/sessions/"+url.PathEscape(sessionID)+"/cart", nil)
	if err != nil {
		fatal("Failed to get cart: %v", err)
	}

	printCart(resp)
}

func runSuggest(args []string) {
	fs := newFlagSet("suggest")
	var sessionID, query string
	fs.StringVar(&sessionID, "session", "", "Session ID (required)")
	fs.StringVar(&query, "query", "", "Name prefix to search (required)")
	parseFlags(fs, args)

	if sessionID == "" || query == "" {
		fs.Usage()
		os.Exit(1)
	}

	path := "/sessions/" + url.PathEscape(sessionID) + "/suggest?q=" + url.QueryEscape(query)
	resp, err := doRequest("GET", path, nil)
	if err != nil {
		fatal("Failed to get suggestions: %v", err)
	}

	matches, _ := resp["matches"].([]interface{})
	if quiet {
		for _, m := range matches {
			mm, _ := m.(map[string]interface{})
			fmt.Printf("%v\t%v\n", mm["product_id"], mm["name"])
		}
		return
	}

	if len(matches) == 0 {
		printInfo("No matches for %q", query)
		return
	}
	printSuccess("%d match(es) for %q", len(matches), query)
	for _, m := range matches {
		mm, _ := m.(map[string]interface{})
		fmt.Printf("  %v%v%v  %v  %s\n", colorBold, mm["product_id"], colorReset,
			mm["name"], formatCents(mm["price"]))
	}
}

func runCheckout(args []string) {
	fs := newFlagSet("checkout")
	var sessionID, payment string
	fs.StringVar(&sessionID, "session", "", "Session ID (required)")
	fs.StringVar(&payment, "payment", "", "Payment method: cash, credit, qr, wallet (default cash)")
	parseFlags(fs, args)

	if sessionID == "" {
		fs.Usage()
		os.Exit(1)
	}

	var body map[string]interface{}
	if payment != "" {
		body = map[string]interface{}{"payment_method": payment}
	}

	resp, err := doRequest("POST", "/sessions/"+url.PathEscape(sessionID)+"/checkout", body)
	if err != nil {
		fatal("Checkout failed: %v", err)
	}

	txn := resp["transaction_id"]
	if quiet {
		fmt.Printf("%v\n", txn)
		return
	}

	printSuccess("Sale completed!")
	fmt.Printf("  Transaction: %s%v%s\n", colorGreen, txn, colorReset)
	fmt.Printf("  Total:       %s\n", formatCents(resp["total_amount"]))
	fmt.Printf("  Payment:     %v\n", resp["payment_method"])

	if warnings, ok := resp["warnings"].([]interface{}); ok {
		for _, w := range warnings {
			printWarning("%v", w)
		}
	}
	if qr, ok := resp["qr_payload"].(string); ok && qr != "" {
		fmt.Printf("  QR payload:  %s\n", qr)
	}
}

func runCancel(args []string) {
	fs := newFlagSet("cancel")
	var sessionID string
	var confirm bool
	fs.StringVar(&sessionID, "session", "", "Session ID (required)")
	fs.BoolVar(&confirm, "confirm", false, "Confirm discarding a non-empty cart")
	parseFlags(fs, args)

	if sessionID == "" {
		fs.Usage()
		os.Exit(1)
	}

	body := map[string]interface{}{"confirm": confirm}
	resp, err := doRequest("POST", "/sessions/"+url.PathEscape(sessionID)+"/cancel", body)
	if err != nil {
		fatal("Cancel failed: %v", err)
	}

	outcome, _ := resp["outcome"].(string)
	if quiet {
		fmt.Println(outcome)
		return
	}

	switch outcome {
	case "cleared":
		printSuccess("Sale cancelled, cart cleared")
	case "declined":
		printWarning("Cart not empty - re-run with -confirm to discard it")
	case "noop":
		printInfo("Cart already empty, nothing to cancel")
	default:
		printWarning("Outcome: %s", outcome)
	}
}

func runClose(args []string) {
	fs := newFlagSet("close")
	var sessionID string
	fs.StringVar(&sessionID, "session", "", "Session ID (required)")
	parseFlags(fs, args)

	if sessionID == "" {
		fs.Usage()
		os.Exit(1)
	}

	if _, err := doRequest("DELETE", "/sessions/"+url.PathEscape(sessionID), nil); err != nil {
		fatal("Failed to close session: %v", err)
	}
	printSuccess("Session closed")
}

// =============================================================================
// HTTP HELPERS
// =============================================================================

func doRequest(method, path string, body interface{}) (map[string]interface{}, error) {
	var reqBody io.Reader
	var reqJSON []byte

	if body != nil {
		var err error
		reqJSON, err = json.MarshalIndent(body, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		reqBody = bytes.NewReader(reqJSON)
	}

	reqURL := strings.TrimSuffix(svcURL, "/") + path
	req, err := http.NewRequest(method, reqURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if registerID != "" {
		req.Header.Set("POS-Terminal", fmt.Sprintf(`id=%q`, registerID))
	}

	if !quiet {
		printRequest(method, path, reqJSON)
	}

	start := time.Now()
	resp, err := client.Do(req)
	duration := time.Since(start)

	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if !quiet {
		printResponse(resp.StatusCode, respBody, duration)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	if len(respBody) == 0 {
		return nil, nil
	}

	var result map[string]interface{}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	return result, nil
}

// =============================================================================
// OUTPUT HELPERS
// =============================================================================

// printCart renders a cart view response as a table.
func printCart(resp map[string]interface{}) {
	items, _ := resp["items"].([]interface{})
	if quiet {
		fmt.Printf("%s\n", formatCents(resp["total"]))
		return
	}

	if len(items) == 0 {
		printInfo("Cart is empty")
		return
	}

	for _, item := range items {
		li, _ := item.(map[string]interface{})
		qty, _ := li["quantity"].(float64)
		price, _ := li["unit_price"].(float64)
		fmt.Printf("  %s%3.0fx%s %-24v %10s\n", colorBold, qty, colorReset,
			li["name"], formatCents(qty*price))
	}
	fmt.Printf("  %sTotal: %s%s\n", colorBold, formatCents(resp["total"]), colorReset)
}

func printRequest(method, path string, body []byte) {
	fmt.Printf("\n%s▶ REQUEST%s %s%s %s%s\n", colorYellow, colorReset, colorBold, method, path, colorReset)
	if body != nil {
		printJSON(body, "  ")
	}
}

func printResponse(status int, body []byte, duration time.Duration) {
	statusColor := colorGreen
	if status >= 400 {
		statusColor = colorRed
	}
	fmt.Printf("\n%s◀ RESPONSE%s %s%d%s (%v)\n", colorCyan, colorReset, statusColor, status, colorReset, duration)
	printJSON(body, "  ")
}

func printJSON(data []byte, prefix string) {
	if len(data) == 0 {
		return
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, prefix, "  "); err != nil {
		fmt.Printf("%s%s\n", prefix, string(data))
		return
	}

	output := pretty.String()
	if !verbose {
		lines := strings.Split(output, "\n")
		if len(lines) > 30 {
			lines = append(lines[:25], fmt.Sprintf("%s  %s(%d more lines, use -v for full output)%s", prefix, colorGray, len(lines)-25, colorReset))
			output = strings.Join(lines, "\n")
		}
	}
	fmt.Println(output)
}

func printSuccess(format string, args ...interface{}) {
	if !quiet {
		fmt.Printf("%s✓ %s%s\n", colorGreen, fmt.Sprintf(format, args...), colorReset)
	}
}

func printWarning(format string, args ...interface{}) {
	fmt.Printf("%s⚠ %s%s\n", colorYellow, fmt.Sprintf(format, args...), colorReset)
}

func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Printf("%s→ %s%s\n", colorGray, fmt.Sprintf(format, args...), colorReset)
	}
}

// formatCents renders a JSON cent amount as dollars.
func formatCents(v interface{}) string {
	switch val := v.(type) {
	case float64:
		return "$" + model.FormatCents(int64(val))
	case int:
		return "$" + model.FormatCents(int64(val))
	default:
		return fmt.Sprintf("%v", v)
	}
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s✗ %s%s\n", colorRed, fmt.Sprintf(format, args...), colorReset)
	os.Exit(1)
}
