package prompt

var styleInstructions = map[Locale]map[Tradition]map[Style]string{
	LocaleEN: {
		TraditionChristian: {
			StyleGentle: `Style: Gentle & healing
- Use soft, comforting language
- Emphasize God's gentle presence and acceptance
- Help the user feel understood and held`,
			StyleVictorious: `Style: Victorious & strengthening
- Use confident, faith-filled language
- Emphasize overcoming through faith
- Declare God's power and promises`,
			StyleGratitude: `Style: Grateful & praising
- Focus on counting blessings and grace
- Find things to thank God for even in difficulty`,
			StyleNight: `Style: Evening rest
- Create a calm, peaceful atmosphere
- Help release the day's burdens and prepare the heart for rest`,
			StyleMorning: `Style: Morning hope
- Use hopeful, energizing language
- Emphasize a new day and ask for strength and wisdom for today`,
		},
		TraditionBuddhist: {
			StyleGentle: `Style: Compassionate & gentle
- Use soft, comforting language
- Emphasize metta (loving-kindness) and acceptance`,
			StyleVictorious: `Style: Steady & courageous
- Use steady, confident language
- Emphasize aspiration and resolve`,
			StyleGratitude: `Style: Grateful & dedicating
- Focus on appreciation of causes and conditions
- Close by dedicating the merit to all beings`,
			StyleNight: `Style: Evening rest
- Create a calm, peaceful atmosphere
- Wish for rest and clarity in sleep`,
			StyleMorning: `Style: Morning hope
- Use hopeful, steady language
- Wish for clarity and wisdom for today`,
		},
	},
	LocaleZH: {
		TraditionChristian: {
			StyleGentle:     "風格：溫柔療癒\n- 使用柔和、安慰的語言\n- 強調神溫柔的同在與接納",
			StyleVictorious: "風格：得勝剛強\n- 使用充滿信心的語言\n- 宣告神的能力與應許",
			StyleGratitude:  "風格：感恩讚美\n- 數算恩典\n- 在困難中也找到感謝的理由",
			StyleNight:      "風格：晚間安歇\n- 營造平靜安穩的氛圍\n- 幫助放下今天的重擔，預備安睡",
			StyleMorning:    "風格：晨光盼望\n- 使用充滿盼望的語言\n- 為今天求力量與智慧",
		},
		TraditionBuddhist: {
			StyleGentle:     "風格：慈悲溫柔\n- 使用柔和的語言\n- 強調慈心與接納",
			StyleVictorious: "風格：安定勇敢\n- 使用安定而堅定的語言\n- 強調發願與決心",
			StyleGratitude:  "風格：感恩迴向\n- 感念因緣\n- 以迴向一切眾生作結",
			StyleNight:      "風格：晚間安歇\n- 營造平靜的氛圍\n- 祝願安睡與清明",
			StyleMorning:    "風格：晨光清明\n- 使用安定而有盼望的語言\n- 祝願今天清明有智慧",
		},
	},
}

var lengthInstructions = map[Locale]map[Length]string{
	LocaleEN: {
		LengthShort:  "Short: Reframe ~120-180 words; main text ~150-200 words, 3-4 paragraphs.",
		LengthMedium: "Medium: Reframe ~180-250 words; main text ~250-350 words, 5-6 paragraphs.",
		LengthLong:   "Long: Reframe ~250-350 words; main text ~400-500 words, 7-10 paragraphs.",
	},
	LocaleZH: {
		LengthShort:  "短篇：轉念約 150-250 字；正文約 200-300 字，3-4 段。",
		LengthMedium: "中篇：轉念約 250-350 字；正文約 350-500 字，5-6 段。",
		LengthLong:   "長篇：轉念約 350-500 字；正文約 600-800 字，7-10 段。",
	},
}
