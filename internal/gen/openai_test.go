package gen

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smartcampus/newsdigest/internal/news"
)

func backendReplying(t *testing.T, content string, capture *chatRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if capture != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(capture))
		}
		reply := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(reply))
	}))
}

func newTestClient(url string) *Client {
	return NewClient(Config{
		BaseURL: url,
		APIKey:  "test-key",
		Model:   "test-model",
		Timeout: 5 * time.Second,
	}, zap.NewNop())
}

func TestSummarize_StructuredReply(t *testing.T) {
	t.Parallel()

	var captured chatRequest
	reply := `{"summary": "两条通知要点。", "items": ["【报名】：竞赛报名截止", "【考试】：补考安排"]}`
	srv := backendReplying(t, reply, &captured)
	defer srv.Close()

	got, err := newTestClient(srv.URL).Summarize(context.Background(), "【新闻1】\n标题：竞赛通知", news.AudienceStudent)
	require.NoError(t, err)
	require.Equal(t, "两条通知要点。", got.Text)
	require.Len(t, got.Items, 2)

	require.Equal(t, "test-model", captured.Model)
	require.Len(t, captured.Messages, 2)
	require.Equal(t, "system", captured.Messages[0].Role)
	require.Contains(t, captured.Messages[0].Content, "【学生】")
	require.Contains(t, captured.Messages[1].Content, "【新闻1】")
}

func TestSummarize_TeacherFraming(t *testing.T) {
	t.Parallel()

	var captured chatRequest
	srv := backendReplying(t, `{"summary": "ok", "items": []}`, &captured)
	defer srv.Close()

	_, err := newTestClient(srv.URL).Summarize(context.Background(), "正文", news.AudienceTeacher)
	require.NoError(t, err)
	require.Contains(t, captured.Messages[0].Content, "【教师】")
	require.Contains(t, captured.Messages[0].Content, "管理职责")
}

func TestSummarize_JSONWrappedInProse(t *testing.T) {
	t.Parallel()

	reply := "好的，以下是结果：\n```json\n{\"summary\": \"要点\", \"items\": [\"一\"]}\n```"
	srv := backendReplying(t, reply, nil)
	defer srv.Close()

	got, err := newTestClient(srv.URL).Summarize(context.Background(), "正文", news.AudienceStudent)
	require.NoError(t, err)
	require.Equal(t, "要点", got.Text)
	require.Equal(t, []string{"一"}, got.Items)
}

func TestSummarize_FreeFormReplyKeptAsText(t *testing.T) {
	t.Parallel()

	reply := "### 竞赛通知\n报名截止。\n### 考试安排\n下周进行。"
	srv := backendReplying(t, reply, nil)
	defer srv.Close()

	got, err := newTestClient(srv.URL).Summarize(context.Background(), "正文", news.AudienceStudent)
	require.NoError(t, err)
	require.Empty(t, got.Items)
	require.Equal(t, reply, got.Text)
	require.Equal(t, 2, EffectiveCount(got))
}

func TestSummarize_BackendError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Summarize(context.Background(), "正文", news.AudienceStudent)
	require.Error(t, err)
	require.Contains(t, err.Error(), "rate limited")
}

func TestSummarize_NoChoices(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Summarize(context.Background(), "正文", news.AudienceStudent)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no choices")
}

func TestAnswer_SendsHistoryAndQuestion(t *testing.T) {
	t.Parallel()

	var captured chatRequest
	srv := backendReplying(t, "  根据简报，本周六有歌手大赛。  ", &captured)
	defer srv.Close()

	history := "【历史简报】：\n[2025-11-27]：校园歌手大赛报名中。"
	got, err := newTestClient(srv.URL).Answer(context.Background(), history, "最近有啥比赛没？", news.AudienceStudent)
	require.NoError(t, err)
	require.Equal(t, "根据简报，本周六有歌手大赛。", got)

	require.Contains(t, captured.Messages[1].Content, history)
	require.Contains(t, captured.Messages[1].Content, "【用户问题】最近有啥比赛没？")
	require.Contains(t, captured.Messages[0].Content, "不知道")
}

func TestEffectiveCount(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   Summary
		want int
	}{
		{"structured list wins", Summary{Text: "### a\n### b", Items: []string{"一", "二", "三"}}, 3},
		{"markdown headings", Summary{Text: "## 通知\n正文\n## 考试\n正文"}, 2},
		{"bullet convention", Summary{Text: "1. 【报名】：截止周五\n2. 【讲座】：周三下午"}, 2},
		{"plain prose counts as one", Summary{Text: "今天只有一条不重要的通知。"}, 1},
		{"empty", Summary{}, 0},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, EffectiveCount(tc.in))
		})
	}
}

func TestSummarize_UserMessageEndsWithJSONRequest(t *testing.T) {
	t.Parallel()

	var captured chatRequest
	srv := backendReplying(t, `{"summary": "ok", "items": ["一"]}`, &captured)
	defer srv.Close()

	_, err := newTestClient(srv.URL).Summarize(context.Background(), "【日期】2025-11-27", news.AudienceStudent)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(captured.Messages[1].Content, "请输出JSON。"))
}
