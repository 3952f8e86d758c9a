package gen

import (
	"fmt"

	"github.com/smartcampus/newsdigest/internal/news"
)

func audienceLabel(audience news.Audience) string {
	if audience == news.AudienceTeacher {
		return "教师"
	}
	return "学生"
}

func audienceFocus(audience news.Audience) string {
	if audience == news.AudienceTeacher {
		return "教师版聚焦：管理职责、督促/组织事项、关键节点时间、需要协调的工作点。"
	}
	return "学生版聚焦：截止日期、学分/综测、报名入口/操作步骤、注意事项。"
}

// summarizeSystem frames one audience's digest and pins the structured
// output contract so the item count comes back explicit.
func summarizeSystem(audience news.Audience) string {
	return fmt.Sprintf(
		"你是一个资深教务秘书。以下是若干条教务/活动新闻，当前用户是【%s】。"+
			"请生成面向%s的总结。\n%s\n"+
			"若有多条新闻，请将要点分类列出，使用格式为【简短要点子标题】：总结描述。\n"+
			"严格输出为JSON：{\"summary\": \"...\", \"items\": [\"每条要点一项\", ...]}。",
		audienceLabel(audience), audienceLabel(audience), audienceFocus(audience))
}

// answerSystem frames history QA: answer only from the provided briefs and
// say so when they do not cover the question.
func answerSystem(audience news.Audience) string {
	return fmt.Sprintf(
		"你是一个智慧校园助手。当前用户是【%s】。"+
			"请根据给定的【历史简报】回答用户问题，回答要正确且简洁。"+
			"如果简报中没有相关信息，就明确回答：最近没有该类新闻/通知，不知道。",
		audienceLabel(audience))
}

func answerUser(history, question string) string {
	return history + "\n\n【用户问题】" + question
}
