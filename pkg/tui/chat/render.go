package chat

func (m *chatModel) updateViewportContent() {
	content := m.projector.Transcript(m.manager.Turns())
	m.viewport.SetContent(content)
	m.viewport.GotoBottom()
}
