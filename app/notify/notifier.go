package notify

import (
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/akarpov/redscout/app/database"
)

// Snippet previews inside the alert are shorter than the stored snippet
const previewLength = 200

// Notifier renders a batch of freshly admitted matches into one HTML alert
// and hands it to the transport. It reports plain success/failure and never
// lets a transport error escape.
type Notifier struct {
	sender  Sender
	baseURL string
}

func NewNotifier(sender Sender, baseURL string) *Notifier {
	return &Notifier{
		sender:  sender,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// Notify sends one summary alert covering all matches. Returns true only
// when the transport accepted the message; the caller stamps notified_at
// based on that.
func (n *Notifier) Notify(matches []database.Match) (delivered bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Notifier failure", "panic", r)
			delivered = false
		}
	}()

	if len(matches) == 0 {
		return false
	}
	if n.sender == nil {
		slog.Debug("Notifications disabled, skipping alert", "matches", len(matches))
		return false
	}

	subject := n.renderSubject(matches)
	body := n.renderBody(matches)

	if err := n.sender.Send(subject, body); err != nil {
		slog.Error("Alert delivery failed", "matches", len(matches), "error", err)
		return false
	}

	slog.Info("Alert delivered", "matches", len(matches))
	return true
}

func (n *Notifier) renderSubject(matches []database.Match) string {
	noun := "matches"
	if len(matches) == 1 {
		noun = "match"
	}

	// Distinct subreddits, first occurrence order
	seen := make(map[string]bool)
	var subreddits []string
	for _, match := range matches {
		if seen[match.Subreddit] {
			continue
		}
		seen[match.Subreddit] = true
		subreddits = append(subreddits, "r/"+match.Subreddit)
	}

	return fmt.Sprintf("🔍 %d new Reddit %s — %s", len(matches), noun, strings.Join(subreddits, ", "))
}

func (n *Notifier) renderBody(matches []database.Match) string {
	var cards strings.Builder
	for _, match := range matches {
		cards.WriteString(n.renderMatchCard(match))
	}

	noun := "matches"
	if len(matches) == 1 {
		noun = "match"
	}

	return fmt.Sprintf(`
    <div style="background:#020617;padding:32px;font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',sans-serif;">
      <div style="max-width:600px;margin:0 auto;">
        <div style="margin-bottom:24px;">
          <span style="color:#a78bfa;font-size:20px;font-weight:700;">RedScout</span>
        </div>
        <p style="color:#cbd5e1;font-size:15px;margin-bottom:20px;">
          Found <strong style="color:#a78bfa;">%d</strong> new Reddit %s for your keywords.
        </p>
        %s
        <div style="margin-top:24px;padding-top:16px;border-top:1px solid #1e293b;">
          <a href="%s" style="color:#7c3aed;font-size:13px;text-decoration:none;">Open Dashboard →</a>
        </div>
      </div>
    </div>`, len(matches), noun, cards.String(), html.EscapeString(n.baseURL))
}

func (n *Notifier) renderMatchCard(match database.Match) string {
	snippet := ""
	if match.SelftextSnippet != "" {
		preview := match.SelftextSnippet
		if len([]rune(preview)) > previewLength {
			preview = string([]rune(preview)[:previewLength]) + "..."
		}
		snippet = fmt.Sprintf(`<p style="color:#94a3b8;font-size:13px;margin:4px 0 0 0;">%s</p>`,
			html.EscapeString(preview))
	}

	dashboardLink := fmt.Sprintf("%s?highlight=%d", n.baseURL, match.ID)

	return fmt.Sprintf(`
        <div style="border:1px solid #1e293b;border-radius:8px;padding:16px;margin-bottom:12px;background:#0f172a;">
          <div style="display:flex;justify-content:space-between;align-items:start;margin-bottom:8px;">
            <span style="background:#1e1b4b;color:#a78bfa;padding:2px 10px;border-radius:4px;font-size:12px;font-weight:600;">r/%s</span>
            <span style="color:#64748b;font-size:12px;">%d comments · score %d</span>
          </div>
          <a href="%s" style="color:#e2e8f0;font-size:15px;font-weight:600;text-decoration:none;line-height:1.4;">%s</a>
          %s
          <div style="margin-top:10px;">
            <span style="color:#64748b;font-size:11px;">Matched: </span>
            <span style="color:#a78bfa;font-size:11px;">%s</span>
          </div>
          <div style="margin-top:12px;display:flex;gap:8px;">
            <a href="%s" style="background:#7c3aed;color:white;padding:6px 14px;border-radius:6px;font-size:12px;text-decoration:none;font-weight:500;">Open in Reddit</a>
            <a href="%s" style="background:#1e293b;color:#cbd5e1;padding:6px 14px;border-radius:6px;font-size:12px;text-decoration:none;font-weight:500;">View in Dashboard</a>
          </div>
        </div>`,
		html.EscapeString(match.Subreddit),
		match.NumComments, match.Score,
		html.EscapeString(match.URL), html.EscapeString(match.Title),
		snippet,
		html.EscapeString(strings.Join(match.MatchedKeywords, ", ")),
		html.EscapeString(match.URL),
		html.EscapeString(dashboardLink))
}
