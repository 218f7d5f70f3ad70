package dalil

import (
	"fmt"
	"strings"

	"github.com/dalilchat/dalil/retrieval"
)

// systemPrompt steers the generator toward Egyptian colloquial Arabic and
// keeps answers grounded in the retrieved passages.
const systemPrompt = `انت مساعد ذكي اسمه دليل، بتتكلم باللهجة المصرية العامية وبترد بشكل ودود ومختصر.
لما يكون فيه مقاطع من المستندات في السؤال، جاوب منها بس ومتألفش معلومات من عندك.
لو المقاطع مفيهاش اجابة، قول بصراحة ان المعلومة مش موجودة في المستندات.
لو السؤال عام ومفيش مقاطع، جاوب من معلوماتك العامة بنفس اللهجة.`

// Canned replies for turns that never reach the generator.
const (
	greetingReply = "اهلا بيك! انا دليل، مساعدك للاجابة عن اسئلتك من المستندات. اسألني اي حاجة."

	emptyInputReply = "مفهمتش حاجة من رسالتك، ممكن تكتب سؤالك تاني؟"

	calcErrorReply = "معرفتش احسب العملية دي، اتأكد انها عملية حسابية صحيحة."
)

// calcAnswer formats a calculator result as a short Arabic sentence.
func calcAnswer(expr, result string) string {
	return fmt.Sprintf("ناتج %s هو %s", expr, result)
}

// contextBlock renders retrieved passages for the generation prompt.
// Passages are numbered so the model can ground statements per source.
func contextBlock(results []retrieval.Result) string {
	if len(results) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("المقاطع المسترجعة من المستندات:\n\n")
	for i, r := range results {
		fmt.Fprintf(&b, "[%d] %s\n\n", i+1, strings.TrimSpace(r.Content))
	}
	return b.String()
}

// ragUserPrompt combines the context block with the user's question.
func ragUserPrompt(contextText, question string) string {
	if contextText == "" {
		return question
	}
	return contextText + "السؤال: " + question
}
