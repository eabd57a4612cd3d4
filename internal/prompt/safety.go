package prompt

import "strings"

var safetyKeywords = []string{
	"suicide", "suicidal", "kill myself", "end my life", "want to die",
	"self-harm", "self harm", "hurt myself", "no reason to live",
	"自杀", "自殺", "不想活", "想死", "结束生命", "結束生命",
	"自残", "自殘", "轻生", "輕生", "活不下去",
}

// NeedsSafetyResponse reports whether text mentions self-harm. Such
// reflections get a fixed reply pointing to crisis help instead of a model call.
func NeedsSafetyResponse(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range safetyKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

type safetyText struct {
	title   string
	reframe string
	prayers map[Style]string
	tags    []string
	card    string
}

const (
	reframeEN = "Sharing this here is a brave step. Your feelings are real, and you matter.\n\n" +
		"The most important thing now is to be with people who can support you. Please call:\n" +
		"• National Suicide Prevention Lifeline: 988 (US, 24/7)\n• Or your local crisis line\n\n" +
		"You don't have to carry this alone. Someone is willing to listen."
	reframeZH = "願意在這裡說出來，是很勇敢的一步。你的感受是真實的，你很重要。\n\n" +
		"現在最重要的是和能支持你的人在一起。請撥打：\n• 安心專線 1925（台灣，24 小時）\n• 或當地的危機求助專線\n\n" +
		"你不需要獨自承擔，有人願意聆聽。"

	mettaOpenEN  = "May I be free from hostility and danger.\nMay I be free from mental and physical suffering.\nMay I be well and happy.\n\n"
	mettaCloseEN = "\n\nMay all beings be free from suffering.\nMay this dedication support you; may you be well and find help."
	mettaOpenZH  = "願我沒有敵意與危險。\n願我沒有身心的痛苦。\n願我平安快樂。\n\n"
	mettaCloseZH = "\n\n願一切眾生離苦得樂。\n願此迴向護持你，願你平安，找到幫助。"
)

var safetyTexts = map[Locale]map[Tradition]safetyText{
	LocaleEN: {
		TraditionChristian: {
			title:   "You Are Not Alone",
			reframe: reframeEN,
			prayers: map[Style]string{
				StyleGentle: "Lord,\nI come to you\nwith what I feel right now.\n\nThank you\nthat you have never left me.\n\n" +
					"Help me take the next step\nand reach out for help.\nLet those who love me draw near.\n\nAmen.",
				StyleVictorious: "Lord,\neven in this moment\nI believe you are with me.\n\nThis is not the end of the story.\n" +
					"Give me courage to ask for help,\nand bring people who can walk with me.\n\nAmen.",
				StyleGratitude: "Lord,\nthank you that I can still speak,\nthat someone is willing to listen.\n\n" +
					"Help me receive the help that is offered\nand believe tomorrow can be new.\n\nAmen.",
				StyleNight: "Lord,\nthe night is here.\nHold me while I rest.\n\n" +
					"Tomorrow, lead me to people who can help.\nLet your peace cover this night.\n\nAmen.",
				StyleMorning: "Lord,\na new day has begun.\nGive me strength today\nto seek the help I need.\n\n" +
					"Let me meet people who can support me,\nand open my heart to them.\n\nAmen.",
			},
			tags: []string{"care", "companionship", "hope"},
			card: "It took courage to say this. Lord, may someone walk with them and help them find support.",
		},
		TraditionBuddhist: {
			title:   "You Are Not Alone",
			reframe: reframeEN,
			prayers: map[Style]string{
				StyleGentle:     mettaOpenEN + "May I be held with kindness in this moment.\nMay someone listen; may someone be near." + mettaCloseEN,
				StyleVictorious: mettaOpenEN + "May I trust that conditions can open a path.\nMay courage and support come close." + mettaCloseEN,
				StyleGratitude:  mettaOpenEN + "I am grateful I can still speak,\ngrateful that someone is willing to listen." + mettaCloseEN,
				StyleNight:      mettaOpenEN + "The night is here. May I rest tonight.\nTomorrow, may I find people who can help." + mettaCloseEN,
				StyleMorning:    mettaOpenEN + "A new day has begun.\nMay I have strength today to seek the help I need." + mettaCloseEN,
			},
			tags: []string{"care", "companionship", "hope"},
			card: "It took courage to say this. May someone walk with you and help you find support. May you be well.",
		},
	},
	LocaleZH: {
		TraditionChristian: {
			title:   "你並不孤單",
			reframe: reframeZH,
			prayers: map[Style]string{
				StyleGentle: "主啊，\n我帶著此刻的感受來到你面前。\n\n謝謝你從未離開我。\n\n" +
					"求你幫助我踏出下一步，\n願意向人求助，\n讓愛我的人靠近我。\n\n阿們。",
				StyleVictorious: "主啊，\n即使在此刻，\n我相信你與我同在。\n\n這不是故事的結局。\n" +
					"求你賜我勇氣向人求助，\n差派能陪伴我的人。\n\n阿們。",
				StyleGratitude: "主啊，\n感謝你，我還能說出來，\n還有人願意聆聽。\n\n" +
					"幫助我接受別人伸出的手，\n相信明天可以是新的。\n\n阿們。",
				StyleNight: "主啊，\n夜晚來了，\n求你在我休息時抱住我。\n\n" +
					"明天，帶領我找到能幫助我的人。\n願你的平安覆蓋今夜。\n\n阿們。",
				StyleMorning: "主啊，\n新的一天開始了。\n求你今天給我力量\n去尋找我需要的幫助。\n\n" +
					"讓我遇見能支持我的人，\n也願意向他們敞開心。\n\n阿們。",
			},
			tags: []string{"關懷", "陪伴", "盼望"},
			card: "說出來需要勇氣。主啊，願有人陪伴在旁，幫助他找到支持。",
		},
		TraditionBuddhist: {
			title:   "你並不孤單",
			reframe: reframeZH,
			prayers: map[Style]string{
				StyleGentle:     mettaOpenZH + "願我此刻被善意環抱。\n願有人聆聽，願有人在身旁。" + mettaCloseZH,
				StyleVictorious: mettaOpenZH + "願我相信因緣能開出一條路。\n願勇氣與支持靠近我。" + mettaCloseZH,
				StyleGratitude:  mettaOpenZH + "感恩我還能說出來，\n感恩有人願意聆聽。" + mettaCloseZH,
				StyleNight:      mettaOpenZH + "夜晚來了，願我今夜安歇。\n明天，願我找到能幫助我的人。" + mettaCloseZH,
				StyleMorning:    mettaOpenZH + "新的一天開始了。\n願我今天有力量去尋求需要的幫助。" + mettaCloseZH,
			},
			tags: []string{"關懷", "陪伴", "盼望"},
			card: "說出來需要勇氣。願善良的人陪伴在旁，幫助你找到支持。",
		},
	},
}

// SafetyResponse is the fixed reply for reflections that mention self-harm.
// The prayer follows the requested style; unknown values fall back to zh,
// christian and gentle.
func SafetyResponse(locale Locale, tradition Tradition, style Style) Output {
	byTradition, ok := safetyTexts[locale]
	if !ok {
		byTradition = safetyTexts[LocaleZH]
	}
	st, ok := byTradition[tradition]
	if !ok {
		st = byTradition[TraditionChristian]
	}
	prayer, ok := st.prayers[style]
	if !ok {
		prayer = st.prayers[StyleGentle]
	}
	title := st.title
	return Output{
		Title:            &title,
		Reframe:          st.reframe,
		Prayer:           prayer,
		Tags:             append([]string(nil), st.tags...),
		BlessingCard:     st.card,
		IsSafetyResponse: true,
	}
}
