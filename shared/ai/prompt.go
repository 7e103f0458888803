package ai

const ideasPromptTemplate = `Analyze this YouTube channel's content performance and generate strategic content ideas.

Video Performance Data:
%s

Key Content Analysis from Top Performing Videos:
%s

Based on this data, please provide:
1. Top performing content patterns and themes
2. Analysis of what makes the successful videos work
3. 5 specific content ideas that could perform well
4. Suggested video titles, descriptions, and key points to cover
5. Strategic recommendations for video duration and upload timing

Focus on actionable insights and specific ideas that build on proven success patterns.
`

const videoSummaryFormat = "Title: %s\nViews: %s\nDuration: %s\nUpload Date: %s\nHas Subtitles: %s\n"

const transcriptExcerptFormat = "\nSubtitle content for '%s':\n%s\n"
